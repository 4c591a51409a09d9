package controller

import (
	"fmt"
	"strings"

	"go.dedis.ch/heirloom/cli/node"
	"go.dedis.ch/heirloom/core/ledger"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"golang.org/x/xerrors"
)

// Send signs a transaction with the arguments and executes it on the ledger
// of the node. It returns an error if the ledger refuses the transaction.
func Send(inj node.Injector, args ...txn.Arg) (txn.Transaction, error) {
	var mgr txn.Manager
	err := inj.Resolve(&mgr)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve manager: %v", err)
	}

	var l *ledger.Ledger
	err = inj.Resolve(&l)
	if err != nil {
		return nil, xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	err = mgr.Sync()
	if err != nil {
		return nil, xerrors.Errorf("failed to sync manager: %v", err)
	}

	tx, err := mgr.Make(args...)
	if err != nil {
		return nil, xerrors.Errorf("failed to make tx: %v", err)
	}

	res, err := l.Execute(tx)
	if err != nil {
		return nil, xerrors.Errorf("failed to execute tx: %v", err)
	}

	if !res.Accepted {
		return nil, xerrors.Errorf("transaction refused: %s", res.Message)
	}

	return tx, nil
}

// View runs the function on the state of the ledger of the node.
func View(inj node.Injector, fn func(snap store.Readable, now uint64) error) error {
	var l *ledger.Ledger
	err := inj.Resolve(&l)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	return l.View(fn)
}

// eventsAction is an action to list the event log.
//
// - implements node.ActionTemplate
type eventsAction struct{}

// Execute implements node.ActionTemplate. It prints one event per line.
func (eventsAction) Execute(ctx node.Context) error {
	var l *ledger.Ledger
	err := ctx.Injector.Resolve(&l)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	entries, err := l.Events()
	if err != nil {
		return xerrors.Errorf("failed to read events: %v", err)
	}

	for _, entry := range entries {
		attrs := make([]string, len(entry.Event.Attrs))
		for i, attr := range entry.Event.Attrs {
			attrs[i] = attr.Key + "=" + attr.Value
		}

		fmt.Fprintf(ctx.Out, "%d\t%d\t%s\t%s\n", entry.Index, entry.Time,
			entry.Event.Topic, strings.Join(attrs, ","))
	}

	return nil
}

// timeAction is an action to print the time of the ledger.
//
// - implements node.ActionTemplate
type timeAction struct{}

// Execute implements node.ActionTemplate.
func (timeAction) Execute(ctx node.Context) error {
	var l *ledger.Ledger
	err := ctx.Injector.Resolve(&l)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	now, err := l.Time()
	if err != nil {
		return xerrors.Errorf("failed to read time: %v", err)
	}

	fmt.Fprintln(ctx.Out, now)

	return nil
}

// whoamiAction is an action to print the identity of the user.
//
// - implements node.ActionTemplate
type whoamiAction struct{}

// Execute implements node.ActionTemplate.
func (whoamiAction) Execute(ctx node.Context) error {
	var signer ed25519.Signer
	err := ctx.Injector.Resolve(&signer)
	if err != nil {
		return xerrors.Errorf("failed to resolve signer: %v", err)
	}

	var l *ledger.Ledger
	err = ctx.Injector.Resolve(&l)
	if err != nil {
		return xerrors.Errorf("failed to resolve ledger: %v", err)
	}

	nonce, err := l.GetNonce(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("failed to read nonce: %v", err)
	}

	text, err := signer.GetPublicKey().MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal public key: %v", err)
	}

	fmt.Fprintf(ctx.Out, "%s\tnonce=%d\n", text, nonce)

	return nil
}
