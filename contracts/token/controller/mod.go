// Package controller implements the CLI initializer of the token contract.
package controller

import (
	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/contracts/token"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution/native"
	"golang.org/x/xerrors"
)

const (
	assetFlag  = "asset"
	toFlag     = "to"
	amountFlag = "amount"
	holderFlag = "holder"
)

// miniController is a CLI initializer to register the token contract.
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new controller for the token contract.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It sets the commands to manage the
// assets.
func (miniController) SetCommands(builder node.Builder) {
	asset := cli.StringFlag{
		Name:     assetFlag,
		Usage:    "identifier of the asset",
		Required: true,
	}

	to := cli.StringFlag{
		Name:     toFlag,
		Usage:    "public key of the receiver, as printed by 'key show'",
		Required: true,
	}

	amount := cli.Uint64Flag{
		Name:     amountFlag,
		Usage:    "amount of tokens",
		Required: true,
	}

	cmd := builder.SetCommand("token")
	cmd.SetDescription("manage fungible assets")

	sub := cmd.SetSubCommand("issue")
	sub.SetDescription("create an asset administrated by the user")
	sub.SetFlags(asset)
	sub.SetAction(builder.MakeAction(issueAction{}))

	sub = cmd.SetSubCommand("mint")
	sub.SetDescription("credit new tokens of an asset the user administrates")
	sub.SetFlags(asset, to, amount)
	sub.SetAction(builder.MakeAction(mintAction{}))

	sub = cmd.SetSubCommand("transfer")
	sub.SetDescription("send tokens of the user")
	sub.SetFlags(asset, to, amount)
	sub.SetAction(builder.MakeAction(transferAction{}))

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("print the balance of a holder")
	sub.SetFlags(asset, cli.StringFlag{
		Name:  holderFlag,
		Usage: "public key of the holder, the user by default",
	})
	sub.SetAction(builder.MakeAction(balanceAction{}))
}

// OnStart implements node.Initializer. It registers the token contract.
func (miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	var journal *events.Journal
	err := inj.Resolve(&journal)
	if err != nil {
		return xerrors.Errorf("failed to resolve journal: %v", err)
	}

	var exec *native.Service
	err = inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	token.RegisterContract(exec, token.NewContract(journal))

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(inj node.Injector) error {
	return nil
}
