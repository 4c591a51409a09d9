// Package token implements a native contract for fungible assets. It is the
// asset service that the wills use to hold and move value.
package token

import (
	"fmt"
	"io"
	"strconv"

	"go.dedis.ch/heirloom"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution"
	"go.dedis.ch/heirloom/core/execution/native"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "heirloom.Token"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "token:command"

	// AssetArg is the argument's name in the transaction that contains the
	// asset identifier.
	AssetArg = "token:asset"

	// ToArg is the argument's name in the transaction that contains the text
	// of the public key receiving the tokens.
	ToArg = "token:to"

	// HolderArg is the argument's name in the transaction that contains the
	// text of the public key to display the balance of.
	HolderArg = "token:holder"

	// AmountArg is the argument's name in the transaction that contains the
	// amount in decimal.
	AmountArg = "token:amount"
)

// Command defines a type of command for the token contract.
type Command string

const (
	// CmdIssue defines the command to create an asset. The sender becomes
	// the admin of the asset.
	CmdIssue Command = "ISSUE"

	// CmdMint defines the command to credit new tokens to a holder.
	CmdMint Command = "MINT"

	// CmdTransfer defines the command to send tokens of the sender.
	CmdTransfer Command = "TRANSFER"

	// CmdBalance defines the command to display the balance of a holder.
	CmdBalance Command = "BALANCE"
)

// commands defines the commands of the token contract. This interface helps in
// testing the contract.
type commands interface {
	issue(snap store.Snapshot, step execution.Step) error
	mint(snap store.Snapshot, step execution.Step) error
	transfer(snap store.Snapshot, step execution.Step) error
	balance(snap store.Snapshot, step execution.Step) error
}

// RegisterContract registers the token contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the fungible assets.
//
// - implements native.Contract
type Contract struct {
	service Service
	events  events.Publisher
	cmd     commands
	printer io.Writer
}

// NewContract creates a new token contract that publishes to the given
// publisher.
func NewContract(pub events.Publisher) Contract {
	contract := Contract{
		service: NewService(),
		events:  pub,
		printer: infoLog{},
	}

	contract.cmd = tokenCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdIssue:
		err := c.cmd.issue(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to ISSUE: %v", err)
		}
	case CmdMint:
		err := c.cmd.mint(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to MINT: %v", err)
		}
	case CmdTransfer:
		err := c.cmd.transfer(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to TRANSFER: %v", err)
		}
	case CmdBalance:
		err := c.cmd.balance(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to BALANCE: %v", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

// tokenCommand implements the commands of the token contract.
//
// - implements commands
type tokenCommand struct {
	*Contract
}

func (c tokenCommand) issue(snap store.Snapshot, step execution.Step) error {
	asset := string(step.Current.GetArg(AssetArg))

	err := c.service.Issue(snap, asset, step.Current.GetIdentity())
	if err != nil {
		return err
	}

	c.events.Publish("issue",
		events.String("asset", asset),
		events.Identity("admin", step.Current.GetIdentity()))

	return nil
}

func (c tokenCommand) mint(snap store.Snapshot, step execution.Step) error {
	asset := string(step.Current.GetArg(AssetArg))

	to, err := IdentityArg(step, ToArg)
	if err != nil {
		return err
	}

	amount, err := AmountOf(step, AmountArg)
	if err != nil {
		return err
	}

	err = c.service.Mint(snap, asset, step.Current.GetIdentity(), to, amount)
	if err != nil {
		return err
	}

	c.events.Publish("mint",
		events.String("asset", asset),
		events.Identity("to", to),
		events.Uint64("amount", amount))

	return nil
}

func (c tokenCommand) transfer(snap store.Snapshot, step execution.Step) error {
	asset := string(step.Current.GetArg(AssetArg))

	to, err := IdentityArg(step, ToArg)
	if err != nil {
		return err
	}

	amount, err := AmountOf(step, AmountArg)
	if err != nil {
		return err
	}

	from := step.Current.GetIdentity()

	err = c.service.Transfer(snap, asset, from, to, amount)
	if err != nil {
		return err
	}

	c.events.Publish("transfer",
		events.String("asset", asset),
		events.Identity("from", from),
		events.Identity("to", to),
		events.Uint64("amount", amount))

	heirloom.Logger.Debug().
		Str("contract", ContractName).
		Uint64("amount", amount).
		Msgf("transfer of %s", asset)

	return nil
}

func (c tokenCommand) balance(snap store.Snapshot, step execution.Step) error {
	asset := string(step.Current.GetArg(AssetArg))

	holder, err := IdentityArg(step, HolderArg)
	if err != nil {
		return err
	}

	amount, err := c.service.BalanceOf(snap, asset, holder)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "%s=%d", asset, amount)

	return nil
}

// IdentityArg parses the public key in the argument of the transaction.
func IdentityArg(step execution.Step, key string) (access.Identity, error) {
	value := step.Current.GetArg(key)
	if len(value) == 0 {
		return nil, xerrors.Errorf("'%s' not found in tx arg", key)
	}

	pubkey, err := ed25519.ParsePublicKey(string(value))
	if err != nil {
		return nil, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return pubkey, nil
}

// AmountOf parses the decimal amount in the argument of the transaction.
func AmountOf(step execution.Step, key string) (uint64, error) {
	value := step.Current.GetArg(key)
	if len(value) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg", key)
	}

	amount, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return amount, nil
}

// infoLog defines an output using zerolog
//
// - implements io.writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	heirloom.Logger.Info().Str("contract", ContractName).Msg(string(p))

	return len(p), nil
}
