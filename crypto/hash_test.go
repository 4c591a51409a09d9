package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSha256Factory_New(t *testing.T) {
	f := NewSha256Factory()
	require.Equal(t, 32, f.New().Size())
}
