package command

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/crypto"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"golang.org/x/xerrors"
)

const (
	// Pubkey is the format of the public key as the commands expect it.
	Pubkey = "PUBKEY"

	// Hex is the format of the raw public key in hexadecimal.
	Hex = "HEX"
)

// action defines the different cli actions of the key commands. Defining
// functions and printer helps in testing the commands.
type action struct {
	printer io.Writer

	genSigner func() ([]byte, error)
	getPubKey func([]byte) (crypto.PublicKey, error)

	readFile func(filename string) ([]byte, error)
	saveFile func(path string, force bool, data []byte) error
}

func (a action) newKeyAction(flags cli.Flags) error {
	data, err := a.genSigner()
	if err != nil {
		return xerrors.Errorf("failed to marshal signer: %v", err)
	}

	path := flags.String("save")

	if path == "" {
		fmt.Fprintln(a.printer, hex.EncodeToString(data))
		return nil
	}

	err = a.saveFile(path, flags.Bool("force"), data)
	if err != nil {
		return xerrors.Errorf("failed to save file: %v", err)
	}

	pubkey, err := a.getPubKey(data)
	if err != nil {
		return xerrors.Errorf("failed to get public key: %v", err)
	}

	text, err := pubkey.MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal public key: %v", err)
	}

	fmt.Fprintln(a.printer, string(text))

	return nil
}

func (a action) showKeyAction(flags cli.Flags) error {
	data, err := a.readFile(flags.Path("path"))
	if err != nil {
		return xerrors.Errorf("failed to read data: %v", err)
	}

	pubkey, err := a.getPubKey(data)
	if err != nil {
		return xerrors.Errorf("failed to get public key: %v", err)
	}

	var out []byte

	switch flags.String("format") {
	case Pubkey:
		out, err = pubkey.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal public key: %v", err)
		}
	case Hex:
		buf, err := pubkey.MarshalBinary()
		if err != nil {
			return xerrors.Errorf("failed to marshal public key: %v", err)
		}

		out = []byte(hex.EncodeToString(buf))
	default:
		return xerrors.Errorf("unknown format '%s'", flags.String("format"))
	}

	fmt.Fprintln(a.printer, string(out))

	return nil
}

func saveToFile(path string, force bool, data []byte) error {
	if !force && fileExist(path) {
		return xerrors.Errorf("file '%s' already exist, use --force if you "+
			"want to overwrite", path)
	}

	err := os.WriteFile(path, data, 0600)
	if err != nil {
		return xerrors.Errorf("failed to write file: %v", err)
	}

	return nil
}

func fileExist(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func getPubkey(data []byte) (crypto.PublicKey, error) {
	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer.GetPublicKey(), nil
}
