// Package command defines the cli commands to manage the Ed25519 keys of the
// users of the ledger.
package command

import (
	"os"

	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/crypto/ed25519"
)

// Initializer implements the key commands. It has no component to start.
//
// - implements node.Initializer
type Initializer struct{}

// SetCommands implements node.Initializer.
func (i Initializer) SetCommands(builder node.Builder) {
	action := action{
		printer: os.Stdout,

		genSigner: ed25519.NewSigner().MarshalBinary,
		getPubKey: getPubkey,
		readFile:  os.ReadFile,
		saveFile:  saveToFile,
	}

	cmd := builder.SetCommand("key")
	cmd.SetDescription("manage the ed25519 keys")

	sub := cmd.SetSubCommand("new")
	sub.SetDescription("create a new private key")
	sub.SetFlags(cli.StringFlag{
		Name:  "save",
		Usage: "if provided, save the private key to that file",
	}, cli.BoolFlag{
		Name:  "force",
		Usage: "in the case it saves the key, will overwrite if needed",
	})
	sub.SetAction(action.newKeyAction)

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print the public key of a private key file")
	sub.SetFlags(cli.StringFlag{
		Name:     "path",
		Usage:    "path to the private key file",
		Required: true,
	}, cli.StringFlag{
		Name:  "format",
		Usage: "output format: [PUBKEY | HEX]",
		Value: Pubkey,
	})
	sub.SetAction(action.showKeyAction)
}

// OnStart implements node.Initializer.
func (Initializer) OnStart(cli.Flags, node.Injector) error {
	return nil
}

// OnStop implements node.Initializer.
func (Initializer) OnStop(node.Injector) error {
	return nil
}
