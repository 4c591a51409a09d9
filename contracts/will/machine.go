package will

import (
	"go.dedis.ch/heirloom/contracts/will/types"
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/core/events"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/store/prefixed"
	"go.dedis.ch/heirloom/crypto"
	"go.dedis.ch/heirloom/serde"
	"go.dedis.ch/heirloom/serde/json"
	"golang.org/x/xerrors"
)

// Assets is the fungible asset service holding the balances, including the one
// of the will.
type Assets interface {
	Transfer(snap store.Snapshot, asset string, from, to access.Identity, amount uint64) error

	BalanceOf(snap store.Readable, asset string, holder access.Identity) (uint64, error)
}

// Services are the collaborators of a will.
type Services struct {
	Authority access.Authority
	Clock     clock.Clock
	Assets    Assets
	Events    events.Publisher
}

// State is the state of a will instance. It is either Uninitialized or Active.
type State interface {
	isState()
}

// Uninitialized is the state of a will that has never been initialized.
type Uninitialized struct{}

func (Uninitialized) isState() {}

// Active is the state of an initialized will. It stays active forever, even
// once its balance has been emptied.
type Active struct {
	Record types.Record
}

func (Active) isState() {}

// InitParams are the parameters of a new will.
type InitParams struct {
	Owner         crypto.PublicKey
	Beneficiary   crypto.PublicKey
	CheckInPeriod uint64
	Asset         string
}

// Info is the public description of a will.
type Info struct {
	Owner         crypto.PublicKey
	Beneficiary   crypto.PublicKey
	CheckInPeriod uint64
	LastCheckIn   uint64
}

// Deadline returns the time after which the will is claimable.
func (i Info) Deadline() uint64 {
	return clock.SaturatingAdd(i.LastCheckIn, i.CheckInPeriod)
}

// Machine is the state machine of one will instance. Every operation is
// atomic as long as the snapshot is: a failed operation neither writes nor
// publishes anything.
type Machine struct {
	instance  string
	identity  access.ContractIdentity
	srvc      Services
	context   serde.Context
	recordFac types.RecordFactory
}

// NewMachine returns the machine of the will instance.
func NewMachine(instance string, srvc Services) Machine {
	return Machine{
		instance:  instance,
		identity:  IdentityOf(instance),
		srvc:      srvc,
		context:   json.NewContext(),
		recordFac: types.NewRecordFactory(),
	}
}

// IdentityOf returns the identity that holds the assets of the will instance.
func IdentityOf(instance string) access.ContractIdentity {
	return access.NewContractIdentity(ContractName + "/" + instance)
}

// GetIdentity returns the identity of the will.
func (m Machine) GetIdentity() access.ContractIdentity {
	return m.identity
}

// State returns the current state of the will.
func (m Machine) State(snap store.Readable) (State, error) {
	data, err := prefixed.NewReadable(ContractName, snap).Get(m.key())
	if err != nil {
		return nil, xerrors.Errorf("failed to read record: %v", err)
	}

	if data == nil {
		return Uninitialized{}, nil
	}

	record, err := m.recordFac.RecordOf(m.context, data)
	if err != nil {
		return nil, xerrors.Errorf("malformed record: %v", err)
	}

	return Active{Record: record}, nil
}

// Initialize creates the will with the owner as the proof must show, and
// starts the check-in period now.
func (m Machine) Initialize(snap store.Snapshot, proof access.Proof, params InitParams) error {
	state, err := m.State(snap)
	if err != nil {
		return err
	}

	_, ok := state.(Active)
	if ok {
		return xerrors.Errorf("will '%s': %w", m.instance, ErrAlreadyInitialized)
	}

	if params.Owner == nil || params.Beneficiary == nil {
		return xerrors.New("missing party")
	}

	err = m.requireAuth(proof, params.Owner)
	if err != nil {
		return err
	}

	if params.Owner.Equal(params.Beneficiary) {
		return xerrors.Errorf("identity '%s': %w", access.TextOf(params.Owner), ErrSameParties)
	}

	if params.Asset == "" {
		return xerrors.New("missing asset")
	}

	now := m.srvc.Clock.Now()

	if now+params.CheckInPeriod < now {
		return xerrors.Errorf("period of %d seconds: %w", params.CheckInPeriod, ErrPeriodTooLarge)
	}

	record := types.Record{
		Owner:         params.Owner,
		Beneficiary:   params.Beneficiary,
		CheckInPeriod: params.CheckInPeriod,
		LastCheckIn:   now,
		Asset:         params.Asset,
	}

	err = m.write(snap, record)
	if err != nil {
		return err
	}

	m.srvc.Events.Publish("init",
		events.String("instance", m.instance),
		events.Identity("owner", params.Owner),
		events.Identity("beneficiary", params.Beneficiary))

	return nil
}

// Deposit moves the amount of the owner to the will.
func (m Machine) Deposit(snap store.Snapshot, proof access.Proof, from access.Identity, amount uint64) error {
	err := m.requireAuth(proof, from)
	if err != nil {
		return err
	}

	record, err := m.active(snap)
	if err != nil {
		return err
	}

	if !record.Owner.Equal(from) {
		return xerrors.Errorf("identity '%s': %w", access.TextOf(from), ErrNotOwner)
	}

	err = m.srvc.Assets.Transfer(snap, record.Asset, from, m.identity, amount)
	if err != nil {
		return causeError{kind: ErrTransferFailed, cause: err}
	}

	m.srvc.Events.Publish("deposit",
		events.String("instance", m.instance),
		events.Identity("from", from),
		events.Uint64("amount", amount))

	return nil
}

// CheckIn proves the owner is alive and restarts the check-in period now.
func (m Machine) CheckIn(snap store.Snapshot, proof access.Proof, owner access.Identity) error {
	err := m.requireAuth(proof, owner)
	if err != nil {
		return err
	}

	record, err := m.active(snap)
	if err != nil {
		return err
	}

	if !record.Owner.Equal(owner) {
		return xerrors.Errorf("identity '%s': %w", access.TextOf(owner), ErrNotOwner)
	}

	// The deadline never moves backward, even with a clock that does.
	now := m.srvc.Clock.Now()
	if now > record.LastCheckIn {
		record.LastCheckIn = now
	}

	err = m.write(snap, record)
	if err != nil {
		return err
	}

	m.srvc.Events.Publish("checkin",
		events.String("instance", m.instance),
		events.Identity("owner", owner),
		events.Uint64("time", record.LastCheckIn))

	return nil
}

// Claim moves the whole balance of the will to the beneficiary once the
// deadline has passed. It returns the amount that was moved.
func (m Machine) Claim(snap store.Snapshot, proof access.Proof, beneficiary access.Identity) (uint64, error) {
	err := m.requireAuth(proof, beneficiary)
	if err != nil {
		return 0, err
	}

	record, err := m.active(snap)
	if err != nil {
		return 0, err
	}

	if !record.Beneficiary.Equal(beneficiary) {
		return 0, xerrors.Errorf("identity '%s': %w", access.TextOf(beneficiary), ErrNotBeneficiary)
	}

	now := m.srvc.Clock.Now()

	if !record.Claimable(now) {
		return 0, xerrors.Errorf("time %d is not after %d: %w",
			now, record.Deadline(), ErrDeadlineNotReached)
	}

	amount, err := m.empty(snap, record, beneficiary)
	if err != nil {
		return 0, err
	}

	m.srvc.Events.Publish("claim",
		events.String("instance", m.instance),
		events.Identity("beneficiary", beneficiary),
		events.Uint64("amount", amount))

	return amount, nil
}

// OwnerWithdraw moves the whole balance of the will back to the owner, at any
// time. It returns the amount that was moved.
func (m Machine) OwnerWithdraw(snap store.Snapshot, proof access.Proof, owner access.Identity) (uint64, error) {
	err := m.requireAuth(proof, owner)
	if err != nil {
		return 0, err
	}

	record, err := m.active(snap)
	if err != nil {
		return 0, err
	}

	if !record.Owner.Equal(owner) {
		return 0, xerrors.Errorf("identity '%s': %w", access.TextOf(owner), ErrNotOwner)
	}

	amount, err := m.empty(snap, record, owner)
	if err != nil {
		return 0, err
	}

	m.srvc.Events.Publish("withdraw",
		events.String("instance", m.instance),
		events.Identity("owner", owner),
		events.Uint64("amount", amount))

	return amount, nil
}

// GetInfo returns the description of the will.
func (m Machine) GetInfo(snap store.Readable) (Info, error) {
	record, err := m.active(snap)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Owner:         record.Owner,
		Beneficiary:   record.Beneficiary,
		CheckInPeriod: record.CheckInPeriod,
		LastCheckIn:   record.LastCheckIn,
	}

	return info, nil
}

// GetBalance returns the amount of the asset the will holds.
func (m Machine) GetBalance(snap store.Readable) (uint64, error) {
	record, err := m.active(snap)
	if err != nil {
		return 0, err
	}

	amount, err := m.srvc.Assets.BalanceOf(snap, record.Asset, m.identity)
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	return amount, nil
}

// CanClaim returns true if the deadline has passed. Anyone can ask.
func (m Machine) CanClaim(snap store.Readable) (bool, error) {
	record, err := m.active(snap)
	if err != nil {
		return false, err
	}

	return record.Claimable(m.srvc.Clock.Now()), nil
}

func (m Machine) requireAuth(proof access.Proof, ident access.Identity) error {
	err := m.srvc.Authority.RequireAuth(proof, ident)
	if err != nil {
		return causeError{kind: ErrAuthorizationFailed, cause: err}
	}

	return nil
}

func (m Machine) active(snap store.Readable) (types.Record, error) {
	state, err := m.State(snap)
	if err != nil {
		return types.Record{}, err
	}

	active, ok := state.(Active)
	if !ok {
		return types.Record{}, xerrors.Errorf("will '%s': %w", m.instance, ErrNotInitialized)
	}

	return active.Record, nil
}

// empty transfers the whole balance of the will to the identity. Nothing is
// transferred when the will is already empty.
func (m Machine) empty(snap store.Snapshot, record types.Record, to access.Identity) (uint64, error) {
	amount, err := m.srvc.Assets.BalanceOf(snap, record.Asset, m.identity)
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	if amount == 0 {
		return 0, nil
	}

	err = m.srvc.Assets.Transfer(snap, record.Asset, m.identity, to, amount)
	if err != nil {
		return 0, causeError{kind: ErrTransferFailed, cause: err}
	}

	return amount, nil
}

func (m Machine) write(snap store.Snapshot, record types.Record) error {
	data, err := record.Serialize(m.context)
	if err != nil {
		return xerrors.Errorf("failed to serialize record: %v", err)
	}

	err = prefixed.NewSnapshot(ContractName, snap).Set(m.key(), data)
	if err != nil {
		return xerrors.Errorf("failed to write record: %v", err)
	}

	return nil
}

func (m Machine) key() []byte {
	return []byte("will/" + m.instance)
}
