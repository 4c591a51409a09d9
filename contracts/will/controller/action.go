package controller

import (
	"fmt"
	"strconv"

	"github.com/rs/xid"
	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/contracts/token"
	"go.dedis.ch/heirloom/contracts/will"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution/native"
	ledgerctl "go.dedis.ch/heirloom/core/ledger/controller"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
	"golang.org/x/xerrors"
)

// initAction is an action to create a will.
//
// - implements node.ActionTemplate
type initAction struct{}

// Execute implements node.ActionTemplate. It prints the name of the will.
func (initAction) Execute(ctx node.Context) error {
	instance := ctx.Flags.String(instanceFlag)
	if instance == "" {
		instance = xid.New().String()
	}

	err := will.CheckInstance(instance)
	if err != nil {
		return xerrors.Errorf("failed to INIT: %v", err)
	}

	args := []txn.Arg{
		{Key: will.PeriodArg, Value: uintOf(ctx.Flags.Uint64(periodFlag))},
		{Key: will.AssetArg, Value: []byte(ctx.Flags.String(assetFlag))},
	}

	args = appendIfSet(args, will.OwnerArg, ctx.Flags.String(ownerFlag))
	args = appendIfSet(args, will.BeneficiaryArg, ctx.Flags.String(beneficiaryFlag))

	err = send(ctx, instance, will.CmdInit, args...)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "will %s initialized\n", instance)

	return nil
}

// depositAction is an action to deposit assets in a will.
//
// - implements node.ActionTemplate
type depositAction struct{}

// Execute implements node.ActionTemplate.
func (depositAction) Execute(ctx node.Context) error {
	return sendAs(ctx, will.CmdDeposit,
		txn.Arg{Key: will.AmountArg, Value: uintOf(ctx.Flags.Uint64(amountFlag))})
}

// checkInAction is an action for the owner to check in.
//
// - implements node.ActionTemplate
type checkInAction struct{}

// Execute implements node.ActionTemplate.
func (checkInAction) Execute(ctx node.Context) error {
	return sendAs(ctx, will.CmdCheckIn)
}

// claimAction is an action for the beneficiary to claim the assets.
//
// - implements node.ActionTemplate
type claimAction struct{}

// Execute implements node.ActionTemplate.
func (claimAction) Execute(ctx node.Context) error {
	return sendAs(ctx, will.CmdClaim)
}

// withdrawAction is an action for the owner to take the assets back.
//
// - implements node.ActionTemplate
type withdrawAction struct{}

// Execute implements node.ActionTemplate.
func (withdrawAction) Execute(ctx node.Context) error {
	return sendAs(ctx, will.CmdWithdraw)
}

// infoAction is an action to print a will.
//
// - implements node.ActionTemplate
type infoAction struct{}

// Execute implements node.ActionTemplate.
func (infoAction) Execute(ctx node.Context) error {
	return view(ctx, func(m will.Machine, snap store.Readable) error {
		info, err := m.GetInfo(snap)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.Out, "owner\t%s\n", access.TextOf(info.Owner))
		fmt.Fprintf(ctx.Out, "beneficiary\t%s\n", access.TextOf(info.Beneficiary))
		fmt.Fprintf(ctx.Out, "period\t%d\n", info.CheckInPeriod)
		fmt.Fprintf(ctx.Out, "lastCheckIn\t%d\n", info.LastCheckIn)
		fmt.Fprintf(ctx.Out, "deadline\t%d\n", info.Deadline())
		fmt.Fprintf(ctx.Out, "holder\t%s\n", m.GetIdentity())

		return nil
	})
}

// balanceAction is an action to print the balance of a will.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate.
func (balanceAction) Execute(ctx node.Context) error {
	return view(ctx, func(m will.Machine, snap store.Readable) error {
		amount, err := m.GetBalance(snap)
		if err != nil {
			return err
		}

		fmt.Fprintln(ctx.Out, amount)

		return nil
	})
}

// canClaimAction is an action to print whether a will is claimable at the
// current time of the ledger.
//
// - implements node.ActionTemplate
type canClaimAction struct{}

// Execute implements node.ActionTemplate.
func (canClaimAction) Execute(ctx node.Context) error {
	return view(ctx, func(m will.Machine, snap store.Readable) error {
		ok, err := m.CanClaim(snap)
		if err != nil {
			return err
		}

		fmt.Fprintln(ctx.Out, ok)

		return nil
	})
}

// sendAs sends the command on the instance of the flags, on behalf of the
// identity of the flags if any.
func sendAs(ctx node.Context, cmd will.Command, args ...txn.Arg) error {
	args = appendIfSet(args, will.IdentityArg, ctx.Flags.String(identityFlag))

	err := send(ctx, ctx.Flags.String(instanceFlag), cmd, args...)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "%s accepted\n", cmd)

	return nil
}

func send(ctx node.Context, instance string, cmd will.Command, args ...txn.Arg) error {
	args = append([]txn.Arg{
		{Key: native.ContractArg, Value: []byte(will.ContractName)},
		{Key: will.CmdArg, Value: []byte(cmd)},
		{Key: will.InstanceArg, Value: []byte(instance)},
	}, args...)

	_, err := ledgerctl.Send(ctx.Injector, args...)
	if err != nil {
		return xerrors.Errorf("failed to %s: %v", cmd, err)
	}

	return nil
}

// view runs the function with the machine of the instance of the flags, pinned
// at the current time of the ledger.
func view(ctx node.Context, fn func(m will.Machine, snap store.Readable) error) error {
	instance := ctx.Flags.String(instanceFlag)

	err := will.CheckInstance(instance)
	if err != nil {
		return xerrors.Errorf("failed to read will: %v", err)
	}

	err = ledgerctl.View(ctx.Injector, func(snap store.Readable, now uint64) error {
		m := will.NewMachine(instance, will.Services{
			Authority: access.NewAuthority(),
			Clock:     clock.Fixed(now),
			Assets:    token.NewService(),
			Events:    events.Multi{},
		})

		return fn(m, snap)
	})

	if err != nil {
		return xerrors.Errorf("failed to read will: %v", err)
	}

	return nil
}

// appendIfSet appends the argument unless the value is empty, so that the
// contract falls back to its default.
func appendIfSet(args []txn.Arg, key, value string) []txn.Arg {
	if value == "" {
		return args
	}

	return append(args, txn.Arg{Key: key, Value: []byte(value)})
}

func uintOf(value uint64) []byte {
	return []byte(strconv.FormatUint(value, 10))
}
