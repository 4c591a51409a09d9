package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/serde"
)

func TestSimpleRegistry_Register(t *testing.T) {
	registry := NewSimpleRegistry()

	registry.Register(serde.FormatJSON, fakeFormat{})
	require.Len(t, registry.store, 1)

	registry.Register(serde.FormatJSON, fakeFormat{})
	require.Len(t, registry.store, 1)

	registry.Register("other", fakeFormat{})
	require.Len(t, registry.store, 2)
}

func TestSimpleRegistry_Get(t *testing.T) {
	registry := NewSimpleRegistry()
	registry.Register(serde.FormatJSON, fakeFormat{})

	require.Equal(t, fakeFormat{}, registry.Get(serde.FormatJSON))

	format := registry.Get("unknown")
	require.IsType(t, emptyFormat{}, format)

	_, err := format.Encode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")

	_, err = format.Decode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeFormat struct {
	serde.FormatEngine
}
