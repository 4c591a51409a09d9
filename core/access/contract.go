package access

import (
	"go.dedis.ch/heirloom/serde"
	"golang.org/x/xerrors"
)

// contractPrefix prefixes the text representation of a contract identity.
const contractPrefix = "contract:"

// ContractIdentity is the identity of a contract instance. It can hold assets
// but it never signs anything, so it is only used by the contracts
// themselves.
//
// - implements access.Identity
type ContractIdentity struct {
	name string
}

// contractIdentityJSON is the JSON message of a contract identity.
type contractIdentityJSON struct {
	Contract string
}

// NewContractIdentity returns the identity of the contract with the given
// name.
func NewContractIdentity(name string) ContractIdentity {
	return ContractIdentity{name: name}
}

// GetName returns the name of the contract.
func (ci ContractIdentity) GetName() string {
	return ci.name
}

// Serialize implements serde.Message. It returns the data of the identity in
// the format of the context.
func (ci ContractIdentity) Serialize(ctx serde.Context) ([]byte, error) {
	data, err := ctx.Marshal(contractIdentityJSON{Contract: ci.name})
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// MarshalText implements encoding.TextMarshaler.
func (ci ContractIdentity) MarshalText() ([]byte, error) {
	return []byte(contractPrefix + ci.name), nil
}

// Equal implements access.Identity. It returns true if the other identity is
// the same contract.
func (ci ContractIdentity) Equal(other interface{}) bool {
	o, ok := other.(ContractIdentity)

	return ok && o.name == ci.name
}

// String implements fmt.Stringer.
func (ci ContractIdentity) String() string {
	return contractPrefix + ci.name
}
