package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestSnapshot_Get(t *testing.T) {
	parent := fake.NewSnapshot()
	require.NoError(t, parent.Set([]byte("a"), []byte("parent")))
	require.NoError(t, parent.Set([]byte("b"), []byte("parent")))

	snap := NewSnapshot(parent)

	value, err := snap.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("parent"), value)

	require.NoError(t, snap.Set([]byte("a"), []byte("overlay")))
	require.NoError(t, snap.Delete([]byte("b")))

	value, err = snap.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("overlay"), value)

	value, err = snap.Get([]byte("b"))
	require.NoError(t, err)
	require.Nil(t, value)

	// The parent is left untouched.
	value, err = parent.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("parent"), value)

	require.Equal(t, 2, snap.Len())

	_, err = NewSnapshot(fake.NewBadSnapshot()).Get([]byte("a"))
	require.EqualError(t, err, fake.Err("parent"))
}

func TestSnapshot_NoParent(t *testing.T) {
	snap := NewSnapshot(nil)

	value, err := snap.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, snap.Set([]byte("a"), []byte{1}))
	require.NoError(t, snap.Delete([]byte("a")))
	require.NoError(t, snap.Set([]byte("a"), []byte{2}))

	value, err = snap.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte{2}, value)
	require.Equal(t, 1, snap.Len())
}

func TestSnapshot_Apply(t *testing.T) {
	parent := fake.NewSnapshot()
	require.NoError(t, parent.Set([]byte("b"), []byte("parent")))

	snap := NewSnapshot(parent)
	require.NoError(t, snap.Set([]byte("a"), []byte("overlay")))
	require.NoError(t, snap.Delete([]byte("b")))

	require.NoError(t, snap.Apply(parent))

	value, err := parent.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("overlay"), value)
	require.Equal(t, 1, parent.Len())

	bad := fake.NewBadSnapshot()
	err = snap.Apply(bad)
	require.EqualError(t, err, fake.Err("failed to set '61'"))

	bad.ErrWrite = nil
	err = snap.Apply(bad)
	require.EqualError(t, err, fake.Err("failed to delete '62'"))
}
