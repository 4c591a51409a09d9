package token

import (
	"encoding/binary"
	"regexp"

	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/store/prefixed"
	"golang.org/x/xerrors"
)

var (
	// ErrUnknownAsset is returned when the asset has not been issued.
	ErrUnknownAsset = xerrors.New("unknown asset")

	// ErrAssetExists is returned when an asset is issued twice.
	ErrAssetExists = xerrors.New("asset already exists")

	// ErrNotAdmin is returned when a mint is not made by the admin of the
	// asset.
	ErrNotAdmin = xerrors.New("not the admin of the asset")

	// ErrInsufficientBalance is returned when a holder transfers more than
	// it has.
	ErrInsufficientBalance = xerrors.New("insufficient balance")

	// ErrInvalidAsset is returned when an asset name has characters outside
	// of letters, digits, '.', '_' and '-', or is too long.
	ErrInvalidAsset = xerrors.New("invalid asset name")

	// ErrOverflow is returned when a balance or the supply would exceed the
	// largest amount.
	ErrOverflow = xerrors.New("amount overflow")
)

var assetPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,32}$`)

// Service is the asset service of the fungible tokens. Every asset has an
// admin that is allowed to mint, and the balances of its holders. The state
// lives in the namespace of the contract.
type Service struct{}

// NewService returns a new asset service.
func NewService() Service {
	return Service{}
}

// Issue creates the asset with the admin.
func (Service) Issue(snap store.Snapshot, asset string, admin access.Identity) error {
	if asset == "" {
		return xerrors.New("asset name is empty")
	}

	if !assetPattern.MatchString(asset) {
		return xerrors.Errorf("asset %q: %w", asset, ErrInvalidAsset)
	}

	adminKey, err := admin.MarshalText()
	if err != nil {
		return xerrors.Errorf("failed to marshal admin: %v", err)
	}

	space := prefixed.NewSnapshot(ContractName, snap)

	current, err := space.Get(assetKey(asset))
	if err != nil {
		return xerrors.Errorf("failed to read asset: %v", err)
	}

	if current != nil {
		return xerrors.Errorf("asset '%s': %w", asset, ErrAssetExists)
	}

	err = space.Set(assetKey(asset), adminKey)
	if err != nil {
		return xerrors.Errorf("failed to write asset: %v", err)
	}

	return nil
}

// Mint credits the amount to the holder. The caller must be the admin of the
// asset.
func (Service) Mint(snap store.Snapshot, asset string, caller, to access.Identity, amount uint64) error {
	space := prefixed.NewSnapshot(ContractName, snap)

	admin, err := space.Get(assetKey(asset))
	if err != nil {
		return xerrors.Errorf("failed to read asset: %v", err)
	}

	if admin == nil {
		return xerrors.Errorf("asset '%s': %w", asset, ErrUnknownAsset)
	}

	if access.TextOf(caller) != string(admin) {
		return xerrors.Errorf("identity '%s': %w", access.TextOf(caller), ErrNotAdmin)
	}

	supply, err := readAmount(space, supplyKey(asset))
	if err != nil {
		return xerrors.Errorf("failed to read supply: %v", err)
	}

	if supply+amount < supply {
		return xerrors.Errorf("supply of '%s': %w", asset, ErrOverflow)
	}

	toKey, err := balanceKey(asset, to)
	if err != nil {
		return err
	}

	balance, err := readAmount(space, toKey)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	// The balance is bounded by the supply.
	err = space.Set(toKey, encodeAmount(balance+amount))
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	err = space.Set(supplyKey(asset), encodeAmount(supply+amount))
	if err != nil {
		return xerrors.Errorf("failed to write supply: %v", err)
	}

	return nil
}

// Transfer moves the amount of the asset from one holder to another. It fails
// without any change when the sender does not have enough.
func (Service) Transfer(snap store.Snapshot, asset string, from, to access.Identity, amount uint64) error {
	space := prefixed.NewSnapshot(ContractName, snap)

	admin, err := space.Get(assetKey(asset))
	if err != nil {
		return xerrors.Errorf("failed to read asset: %v", err)
	}

	if admin == nil {
		return xerrors.Errorf("asset '%s': %w", asset, ErrUnknownAsset)
	}

	fromKey, err := balanceKey(asset, from)
	if err != nil {
		return err
	}

	toKey, err := balanceKey(asset, to)
	if err != nil {
		return err
	}

	fromBalance, err := readAmount(space, fromKey)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	if fromBalance < amount {
		return xerrors.Errorf("%d < %d: %w", fromBalance, amount, ErrInsufficientBalance)
	}

	if string(fromKey) == string(toKey) {
		return nil
	}

	toBalance, err := readAmount(space, toKey)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	if toBalance+amount < toBalance {
		return xerrors.Errorf("balance of '%s': %w", access.TextOf(to), ErrOverflow)
	}

	err = space.Set(fromKey, encodeAmount(fromBalance-amount))
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	err = space.Set(toKey, encodeAmount(toBalance+amount))
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	return nil
}

// BalanceOf returns the amount of the asset the holder owns.
func (Service) BalanceOf(snap store.Readable, asset string, holder access.Identity) (uint64, error) {
	key, err := balanceKey(asset, holder)
	if err != nil {
		return 0, err
	}

	amount, err := readAmount(prefixed.NewReadable(ContractName, snap), key)
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	return amount, nil
}

// AdminOf returns the text of the admin identity of the asset.
func (Service) AdminOf(snap store.Readable, asset string) (string, error) {
	admin, err := prefixed.NewReadable(ContractName, snap).Get(assetKey(asset))
	if err != nil {
		return "", xerrors.Errorf("failed to read asset: %v", err)
	}

	if admin == nil {
		return "", xerrors.Errorf("asset '%s': %w", asset, ErrUnknownAsset)
	}

	return string(admin), nil
}

func assetKey(asset string) []byte {
	return keyOf("asset", []byte(asset))
}

func supplyKey(asset string) []byte {
	return keyOf("supply", []byte(asset))
}

func balanceKey(asset string, holder access.Identity) ([]byte, error) {
	if holder == nil {
		return nil, xerrors.New("missing holder")
	}

	text, err := holder.MarshalText()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal holder: %v", err)
	}

	return keyOf("balance", []byte(asset), text), nil
}

// keyOf returns the key of the kind made of the parts, each one prefixed with
// its length so that two different lists of parts never share a key.
func keyOf(kind string, parts ...[]byte) []byte {
	key := []byte(kind)
	for _, part := range parts {
		size := make([]byte, 4)
		binary.LittleEndian.PutUint32(size, uint32(len(part)))

		key = append(key, size...)
		key = append(key, part...)
	}

	return key
}

func readAmount(r store.Readable, key []byte) (uint64, error) {
	data, err := r.Get(key)
	if err != nil {
		return 0, err
	}

	if data == nil {
		return 0, nil
	}

	if len(data) != 8 {
		return 0, xerrors.Errorf("malformed amount of %d bytes", len(data))
	}

	return binary.LittleEndian.Uint64(data), nil
}

func encodeAmount(amount uint64) []byte {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, amount)

	return buffer
}
