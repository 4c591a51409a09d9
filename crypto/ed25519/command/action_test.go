package command

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/crypto"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestNewKeyAction(t *testing.T) {
	out := new(bytes.Buffer)

	action := action{
		printer:   out,
		genSigner: badGenSigner,
		saveFile:  fakeSaveFile,
		getPubKey: getPubkey,
	}

	set := node.FlagSet{}
	err := action.newKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to marshal signer"))

	signer := ed25519.NewSigner()
	action.genSigner = signer.MarshalBinary

	err = action.newKeyAction(set)
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out.String()), 64)

	out.Reset()
	set["save"] = "private.key"

	err = action.newKeyAction(set)
	require.NoError(t, err)

	text, err := signer.GetPublicKey().MarshalText()
	require.NoError(t, err)
	require.Equal(t, string(text)+"\n", out.String())

	action.getPubKey = badGetPubKey
	err = action.newKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to get public key"))

	action.saveFile = badSaveFile
	err = action.newKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to save file"))
}

func TestShowKeyAction(t *testing.T) {
	out := new(bytes.Buffer)

	action := action{
		printer:  out,
		readFile: badReadFile,
	}

	set := node.FlagSet{}
	err := action.showKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to read data"))

	action.readFile = fakeReadFile
	action.getPubKey = badGetPubKey
	err = action.showKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to get public key"))

	action.getPubKey = fakeGetPubKey
	err = action.showKeyAction(set)
	require.EqualError(t, err, "unknown format ''")

	set["format"] = Pubkey
	err = action.showKeyAction(set)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.String(), "ed25519:"))

	out.Reset()
	set["format"] = Hex
	err = action.showKeyAction(set)
	require.NoError(t, err)
	require.Len(t, strings.TrimSpace(out.String()), 64)

	action.getPubKey = wrongGetPubKey
	err = action.showKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to marshal public key"))

	set["format"] = Pubkey
	err = action.showKeyAction(set)
	require.EqualError(t, err, fake.Err("failed to marshal public key"))
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private.key")

	err := saveToFile(path, false, []byte("a"))
	require.NoError(t, err)

	err = saveToFile(path, false, []byte("b"))
	require.EqualError(t, err, "file '"+path+"' already exist, use --force if you want to overwrite")

	err = saveToFile(path, true, []byte("b"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("b"), data)

	err = saveToFile(filepath.Join(path, "nope"), true, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to write file: ")
}

func TestGetPubkey(t *testing.T) {
	signer := ed25519.NewSigner()

	data, err := signer.MarshalBinary()
	require.NoError(t, err)

	pubkey, err := getPubkey(data)
	require.NoError(t, err)
	require.True(t, pubkey.Equal(signer.GetPublicKey()))

	_, err = getPubkey([]byte{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal signer: ")
}

func TestInitializer(t *testing.T) {
	init := Initializer{}

	builder := node.NewBuilderWithCfg(io.Discard, init)
	app := builder.Build()

	path := filepath.Join(t.TempDir(), "private.key")

	err := app.Run([]string{"heirloom", "key", "new", "--save", path})
	require.NoError(t, err)

	err = app.Run([]string{"heirloom", "key", "show", "--path", path})
	require.NoError(t, err)

	require.NoError(t, init.OnStart(nil, nil))
	require.NoError(t, init.OnStop(nil))
}

// -----------------------------------------------------------------------------
// Utility functions

func badGenSigner() ([]byte, error) {
	return nil, fake.GetError()
}

func fakeSaveFile(path string, force bool, data []byte) error {
	return nil
}

func badSaveFile(path string, force bool, data []byte) error {
	return fake.GetError()
}

func badReadFile(filename string) ([]byte, error) {
	return nil, fake.GetError()
}

func fakeReadFile(filename string) ([]byte, error) {
	return nil, nil
}

func badGetPubKey([]byte) (crypto.PublicKey, error) {
	return nil, fake.GetError()
}

func fakeGetPubKey([]byte) (crypto.PublicKey, error) {
	return ed25519.NewSigner().GetPublicKey(), nil
}

func wrongGetPubKey([]byte) (crypto.PublicKey, error) {
	return fakePublicKey{}, nil
}

type fakePublicKey struct {
	crypto.PublicKey
}

func (fakePublicKey) MarshalText() ([]byte, error) {
	return nil, fake.GetError()
}

func (fakePublicKey) MarshalBinary() ([]byte, error) {
	return nil, fake.GetError()
}
