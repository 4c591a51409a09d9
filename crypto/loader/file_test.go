package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestFileLoader_LoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	generator := &fakeGenerator{}

	loader := NewFileLoader(path).(fileLoader)

	// Generate..
	data, err := loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls)

	// Read from the file..
	data, err = loader.LoadOrCreate(generator)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)
	require.Equal(t, 1, generator.calls)

	require.NoError(t, os.Remove(path))

	_, err = loader.LoadOrCreate(&fakeGenerator{err: fake.GetError()})
	require.EqualError(t, err, fake.Err("generator failed"))

	loader.openFileFn = func(path string, flags int, perms os.FileMode) (*os.File, error) {
		return nil, fake.GetError()
	}
	_, err = loader.LoadOrCreate(generator)
	require.EqualError(t, err, fake.Err("while creating file"))

	loader.statFn = func(path string) (os.FileInfo, error) {
		return nil, nil
	}
	loader.openFn = func(path string) (*os.File, error) {
		return nil, fake.GetError()
	}
	_, err = loader.LoadOrCreate(generator)
	require.EqualError(t, err, fake.Err("failed to load file: while opening file"))
}

func TestFileLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	loader := NewFileLoader(path)

	_, err := loader.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "while opening file: ")

	require.NoError(t, os.WriteFile(path, []byte("key"), 0600))

	data, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, []byte("key"), data)

	require.NoError(t, os.Chmod(path, 0644))

	_, err = loader.Load()
	require.EqualError(t, err, "key file '"+path+"' is accessible by other "+
		"users (0644), use chmod 600")

	_, err = loader.LoadOrCreate(&fakeGenerator{})
	require.EqualError(t, err, "failed to load file: key file '"+path+
		"' is accessible by other users (0644), use chmod 600")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) Generate() ([]byte, error) {
	g.calls++

	return []byte{1, 2, 3}, g.err
}
