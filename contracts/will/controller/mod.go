// Package controller implements the CLI initializer of the will contract.
//
// The commands changing a will are sent as transactions signed by the key of
// the user. The queries read the state of the ledger directly.
package controller

import (
	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/contracts/token"
	"go.dedis.ch/heirloom/contracts/will"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution/native"
	"golang.org/x/xerrors"
)

const (
	instanceFlag    = "instance"
	ownerFlag       = "owner"
	beneficiaryFlag = "beneficiary"
	periodFlag      = "period"
	assetFlag       = "asset"
	amountFlag      = "amount"
	identityFlag    = "identity"
)

// miniController is a CLI initializer to register the will contract.
//
// - implements node.Initializer
type miniController struct{}

// NewController creates a new controller for the will contract. It expects
// the token contract to hold the assets.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. It sets the commands to manage the
// wills.
func (miniController) SetCommands(builder node.Builder) {
	instance := cli.StringFlag{
		Name:     instanceFlag,
		Usage:    "name of the will: lower case letters, digits and '-'",
		Required: true,
	}

	identity := cli.StringFlag{
		Name:  identityFlag,
		Usage: "public key the user acts for, the user by default",
	}

	cmd := builder.SetCommand("will")
	cmd.SetDescription("manage dead man's switch wills")

	sub := cmd.SetSubCommand("init")
	sub.SetDescription("create a will, the name is generated if missing")
	sub.SetFlags(
		cli.StringFlag{
			Name:  instanceFlag,
			Usage: "name of the will: lower case letters, digits and '-'",
		},
		cli.StringFlag{
			Name:  ownerFlag,
			Usage: "public key of the owner, the user by default",
		},
		cli.StringFlag{
			Name:     beneficiaryFlag,
			Usage:    "public key of the beneficiary",
			Required: true,
		},
		cli.Uint64Flag{
			Name:     periodFlag,
			Usage:    "check-in period in seconds",
			Required: true,
		},
		cli.StringFlag{
			Name:     assetFlag,
			Usage:    "asset held by the will",
			Required: true,
		},
	)
	sub.SetAction(builder.MakeAction(initAction{}))

	sub = cmd.SetSubCommand("deposit")
	sub.SetDescription("deposit assets of the owner")
	sub.SetFlags(instance, identity, cli.Uint64Flag{
		Name:     amountFlag,
		Usage:    "amount to deposit",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(depositAction{}))

	sub = cmd.SetSubCommand("checkin")
	sub.SetDescription("prove that the owner is alive")
	sub.SetFlags(instance, identity)
	sub.SetAction(builder.MakeAction(checkInAction{}))

	sub = cmd.SetSubCommand("claim")
	sub.SetDescription("transfer the balance to the beneficiary after the deadline")
	sub.SetFlags(instance, identity)
	sub.SetAction(builder.MakeAction(claimAction{}))

	sub = cmd.SetSubCommand("withdraw")
	sub.SetDescription("transfer the balance back to the owner")
	sub.SetFlags(instance, identity)
	sub.SetAction(builder.MakeAction(withdrawAction{}))

	sub = cmd.SetSubCommand("info")
	sub.SetDescription("print the parties and the deadline of a will")
	sub.SetFlags(instance)
	sub.SetAction(builder.MakeAction(infoAction{}))

	sub = cmd.SetSubCommand("balance")
	sub.SetDescription("print the balance of a will")
	sub.SetFlags(instance)
	sub.SetAction(builder.MakeAction(balanceAction{}))

	sub = cmd.SetSubCommand("canclaim")
	sub.SetDescription("print whether the beneficiary can claim")
	sub.SetFlags(instance)
	sub.SetAction(builder.MakeAction(canClaimAction{}))
}

// OnStart implements node.Initializer. It registers the will contract.
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

	will.RegisterContract(exec, will.NewContract(token.NewService(), journal))

	return nil
}

// OnStop implements node.Initializer.
func (miniController) OnStop(inj node.Injector) error {
	return nil
}
