// Package will implements the dead man's switch custodial will.
//
// An owner deposits a fungible asset in the will and must check in before the
// check-in period is over. If the owner fails to do so, the beneficiary can
// claim the whole balance. The owner can withdraw it back at any time.
//
// The state machine is Machine. Contract exposes it as a native contract where
// the signed transaction is the proof of the caller identity, and the ledger
// time of the transaction is the current time.
package will

import (
	"fmt"
	"io"
	"regexp"
	"strconv"

	"go.dedis.ch/heirloom"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/execution"
	"go.dedis.ch/heirloom/core/execution/native"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "heirloom.Will"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "will:command"

	// InstanceArg is the argument's name in the transaction that contains the
	// name of the will instance.
	InstanceArg = "will:instance"

	// OwnerArg is the argument's name in the transaction that contains the
	// public key of the owner. It defaults to the sender.
	OwnerArg = "will:owner"

	// BeneficiaryArg is the argument's name in the transaction that contains
	// the public key of the beneficiary.
	BeneficiaryArg = "will:beneficiary"

	// PeriodArg is the argument's name in the transaction that contains the
	// check-in period in seconds.
	PeriodArg = "will:period"

	// AssetArg is the argument's name in the transaction that contains the
	// asset accepted by the will.
	AssetArg = "will:asset"

	// IdentityArg is the argument's name in the transaction that contains the
	// public key the sender acts for. It defaults to the sender.
	IdentityArg = "will:identity"

	// AmountArg is the argument's name in the transaction that contains the
	// amount to deposit.
	AmountArg = "will:amount"
)

// MaxInstanceLength is the maximum length of the name of a will.
const MaxInstanceLength = 64

var instancePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Command defines a type of command for the will contract.
type Command string

const (
	// CmdInit defines the command to initialize a will.
	CmdInit Command = "INIT"

	// CmdDeposit defines the command to deposit assets of the owner.
	CmdDeposit Command = "DEPOSIT"

	// CmdCheckIn defines the command for the owner to check in.
	CmdCheckIn Command = "CHECKIN"

	// CmdClaim defines the command for the beneficiary to claim the assets.
	CmdClaim Command = "CLAIM"

	// CmdWithdraw defines the command for the owner to take the assets back.
	CmdWithdraw Command = "WITHDRAW"

	// CmdInfo defines the command to display the will.
	CmdInfo Command = "INFO"

	// CmdBalance defines the command to display the balance of the will.
	CmdBalance Command = "BALANCE"

	// CmdCanClaim defines the command to display if the will is claimable.
	CmdCanClaim Command = "CANCLAIM"
)

// commands defines the commands of the will contract. This interface helps in
// testing the contract.
type commands interface {
	init(m Machine, snap store.Snapshot, step execution.Step) error
	deposit(m Machine, snap store.Snapshot, step execution.Step) error
	checkIn(m Machine, snap store.Snapshot, step execution.Step) error
	claim(m Machine, snap store.Snapshot, step execution.Step) error
	withdraw(m Machine, snap store.Snapshot, step execution.Step) error
	info(m Machine, snap store.Snapshot) error
	balance(m Machine, snap store.Snapshot) error
	canClaim(m Machine, snap store.Snapshot) error
}

// RegisterContract registers the will contract to the given execution service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the native contract of the wills. It hosts any number of
// instances, each addressed by its name.
//
// - implements native.Contract
type Contract struct {
	authority access.Authority
	assets    Assets
	events    events.Publisher
	cmd       commands
	printer   io.Writer
}

// NewContract creates a new will contract that holds its assets in the asset
// service and publishes to the given publisher.
func NewContract(assets Assets, pub events.Publisher) Contract {
	contract := Contract{
		authority: access.NewAuthority(),
		assets:    assets,
		events:    pub,
		printer:   infoLog{},
	}

	contract.cmd = willCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command on the
// instance of the transaction.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	}

	instance := string(step.Current.GetArg(InstanceArg))
	if instance == "" {
		return xerrors.Errorf("'%s' not found in tx arg", InstanceArg)
	}

	err := CheckInstance(instance)
	if err != nil {
		return err
	}

	m := NewMachine(instance, Services{
		Authority: c.authority,
		Clock:     clock.Fixed(step.Time),
		Assets:    c.assets,
		Events:    c.events,
	})

	switch Command(cmd) {
	case CmdInit:
		err = c.cmd.init(m, snap, step)
	case CmdDeposit:
		err = c.cmd.deposit(m, snap, step)
	case CmdCheckIn:
		err = c.cmd.checkIn(m, snap, step)
	case CmdClaim:
		err = c.cmd.claim(m, snap, step)
	case CmdWithdraw:
		err = c.cmd.withdraw(m, snap, step)
	case CmdInfo:
		err = c.cmd.info(m, snap)
	case CmdBalance:
		err = c.cmd.balance(m, snap)
	case CmdCanClaim:
		err = c.cmd.canClaim(m, snap)
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		return xerrors.Errorf("failed to %s: %w", cmd, err)
	}

	return nil
}

// CheckInstance returns an error if the name of the will is empty, too long or
// has characters other than lower case letters, digits and '-'.
func CheckInstance(name string) error {
	if len(name) == 0 || len(name) > MaxInstanceLength || !instancePattern.MatchString(name) {
		return xerrors.Errorf("instance %q: %w", name, ErrInvalidInstance)
	}

	return nil
}

// willCommand implements the commands of the will contract.
//
// - implements commands
type willCommand struct {
	*Contract
}

func (c willCommand) init(m Machine, snap store.Snapshot, step execution.Step) error {
	owner, found, err := pubkeyArg(step, OwnerArg)
	if err != nil {
		return err
	}

	if !found {
		owner, err = senderOf(step)
		if err != nil {
			return err
		}
	}

	beneficiary, found, err := pubkeyArg(step, BeneficiaryArg)
	if err != nil {
		return err
	}

	if !found {
		return xerrors.Errorf("'%s' not found in tx arg", BeneficiaryArg)
	}

	period, err := uintArg(step, PeriodArg)
	if err != nil {
		return err
	}

	params := InitParams{
		Owner:         owner,
		Beneficiary:   beneficiary,
		CheckInPeriod: period,
		Asset:         string(step.Current.GetArg(AssetArg)),
	}

	return m.Initialize(snap, step.Current, params)
}

func (c willCommand) deposit(m Machine, snap store.Snapshot, step execution.Step) error {
	from, err := identityOf(step)
	if err != nil {
		return err
	}

	amount, err := uintArg(step, AmountArg)
	if err != nil {
		return err
	}

	return m.Deposit(snap, step.Current, from, amount)
}

func (c willCommand) checkIn(m Machine, snap store.Snapshot, step execution.Step) error {
	owner, err := identityOf(step)
	if err != nil {
		return err
	}

	return m.CheckIn(snap, step.Current, owner)
}

func (c willCommand) claim(m Machine, snap store.Snapshot, step execution.Step) error {
	beneficiary, err := identityOf(step)
	if err != nil {
		return err
	}

	amount, err := m.Claim(snap, step.Current, beneficiary)
	if err != nil {
		return err
	}

	heirloom.Logger.Info().
		Str("contract", ContractName).
		Uint64("amount", amount).
		Msgf("will %s claimed", m.instance)

	return nil
}

func (c willCommand) withdraw(m Machine, snap store.Snapshot, step execution.Step) error {
	owner, err := identityOf(step)
	if err != nil {
		return err
	}

	amount, err := m.OwnerWithdraw(snap, step.Current, owner)
	if err != nil {
		return err
	}

	heirloom.Logger.Info().
		Str("contract", ContractName).
		Uint64("amount", amount).
		Msgf("will %s withdrawn", m.instance)

	return nil
}

func (c willCommand) info(m Machine, snap store.Snapshot) error {
	info, err := m.GetInfo(snap)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "owner=%s,beneficiary=%s,period=%d,lastCheckIn=%d",
		access.TextOf(info.Owner), access.TextOf(info.Beneficiary),
		info.CheckInPeriod, info.LastCheckIn)

	return nil
}

func (c willCommand) balance(m Machine, snap store.Snapshot) error {
	amount, err := m.GetBalance(snap)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "balance=%d", amount)

	return nil
}

func (c willCommand) canClaim(m Machine, snap store.Snapshot) error {
	ok, err := m.CanClaim(snap)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.printer, "canClaim=%t", ok)

	return nil
}

// identityOf returns the identity in the argument of the transaction, or the
// sender when it is absent.
func identityOf(step execution.Step) (access.Identity, error) {
	pubkey, found, err := pubkeyArg(step, IdentityArg)
	if err != nil {
		return nil, err
	}

	if found {
		return pubkey, nil
	}

	return step.Current.GetIdentity(), nil
}

// senderOf returns the public key of the sender of the transaction.
func senderOf(step execution.Step) (ed25519.PublicKey, error) {
	pubkey, ok := step.Current.GetIdentity().(ed25519.PublicKey)
	if !ok {
		return ed25519.PublicKey{}, xerrors.Errorf("unsupported sender '%T'",
			step.Current.GetIdentity())
	}

	return pubkey, nil
}

// pubkeyArg parses the public key of the argument. The boolean is false when
// the argument is absent.
func pubkeyArg(step execution.Step, key string) (ed25519.PublicKey, bool, error) {
	value := step.Current.GetArg(key)
	if len(value) == 0 {
		return ed25519.PublicKey{}, false, nil
	}

	pubkey, err := ed25519.ParsePublicKey(string(value))
	if err != nil {
		return ed25519.PublicKey{}, false, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return pubkey, true, nil
}

func uintArg(step execution.Step, key string) (uint64, error) {
	value := step.Current.GetArg(key)
	if len(value) == 0 {
		return 0, xerrors.Errorf("'%s' not found in tx arg", key)
	}

	num, err := strconv.ParseUint(string(value), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid '%s': %v", key, err)
	}

	return num, nil
}

// infoLog defines an output using zerolog
//
// - implements io.writer
type infoLog struct{}

func (h infoLog) Write(p []byte) (int, error) {
	heirloom.Logger.Info().Str("contract", ContractName).Msg(string(p))

	return len(p), nil
}
