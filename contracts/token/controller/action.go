package controller

import (
	"fmt"
	"strconv"

	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/contracts/token"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/execution/native"
	ledgerctl "go.dedis.ch/heirloom/core/ledger/controller"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"golang.org/x/xerrors"
)

// issueAction is an action to create an asset.
//
// - implements node.ActionTemplate
type issueAction struct{}

// Execute implements node.ActionTemplate.
func (issueAction) Execute(ctx node.Context) error {
	return send(ctx, token.CmdIssue)
}

// mintAction is an action to credit new tokens.
//
// - implements node.ActionTemplate
type mintAction struct{}

// Execute implements node.ActionTemplate.
func (mintAction) Execute(ctx node.Context) error {
	return send(ctx, token.CmdMint,
		txn.Arg{Key: token.ToArg, Value: []byte(ctx.Flags.String(toFlag))},
		txn.Arg{Key: token.AmountArg, Value: amountOf(ctx)})
}

// transferAction is an action to send tokens.
//
// - implements node.ActionTemplate
type transferAction struct{}

// Execute implements node.ActionTemplate.
func (transferAction) Execute(ctx node.Context) error {
	return send(ctx, token.CmdTransfer,
		txn.Arg{Key: token.ToArg, Value: []byte(ctx.Flags.String(toFlag))},
		txn.Arg{Key: token.AmountArg, Value: amountOf(ctx)})
}

// balanceAction is an action to print the balance of a holder. It reads the
// state without sending a transaction.
//
// - implements node.ActionTemplate
type balanceAction struct{}

// Execute implements node.ActionTemplate.
func (balanceAction) Execute(ctx node.Context) error {
	asset := ctx.Flags.String(assetFlag)

	holder, err := holderOf(ctx)
	if err != nil {
		return err
	}

	var amount uint64

	err = ledgerctl.View(ctx.Injector, func(snap store.Readable, now uint64) error {
		amount, err = token.NewService().BalanceOf(snap, asset, holder)
		return err
	})

	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%s=%d\n", asset, amount)

	return nil
}

func send(ctx node.Context, cmd token.Command, args ...txn.Arg) error {
	args = append([]txn.Arg{
		{Key: native.ContractArg, Value: []byte(token.ContractName)},
		{Key: token.CmdArg, Value: []byte(cmd)},
		{Key: token.AssetArg, Value: []byte(ctx.Flags.String(assetFlag))},
	}, args...)

	tx, err := ledgerctl.Send(ctx.Injector, args...)
	if err != nil {
		return xerrors.Errorf("failed to %s: %v", cmd, err)
	}

	fmt.Fprintf(ctx.Out, "transaction %x accepted\n", tx.GetID())

	return nil
}

func amountOf(ctx node.Context) []byte {
	return []byte(strconv.FormatUint(ctx.Flags.Uint64(amountFlag), 10))
}

func holderOf(ctx node.Context) (access.Identity, error) {
	text := ctx.Flags.String(holderFlag)
	if text != "" {
		pubkey, err := ed25519.ParsePublicKey(text)
		if err != nil {
			return nil, xerrors.Errorf("invalid holder: %v", err)
		}

		return pubkey, nil
	}

	var signer ed25519.Signer
	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve signer: %v", err)
	}

	return signer.GetPublicKey(), nil
}
