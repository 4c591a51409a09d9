// Package txn defines the abstraction of transactions.
//
// A transaction is a contract input. It is uniquely identifiable via a digest
// and it is ordered by the nonce that acts as a sequence number of its
// identity. A transaction is also the proof that its identity authorized the
// call, which the contracts hand to the access authority.
//
// The manager helps to create transactions as the nonce needs to be correct for
// the transaction to be accepted.
package txn

import (
	"go.dedis.ch/heirloom/core/access"
	"go.dedis.ch/heirloom/serde"
)

// Transaction is what triggers a contract execution by passing it as part of
// the input.
type Transaction interface {
	serde.Message
	serde.Fingerprinter
	access.Proof

	// GetID returns the unique identifier for the transaction.
	GetID() []byte

	// GetNonce returns the nonce of the transaction which corresponds to the
	// sequence number of a unique identity.
	GetNonce() uint64

	// GetArg is a getter for the arguments of the transaction.
	GetArg(key string) []byte
}

// Factory is the definition of a factory to deserialize transaction messages.
type Factory interface {
	serde.Factory

	TransactionOf(serde.Context, []byte) (Transaction, error)
}

// Arg is a generic argument that can be stored in a transaction.
type Arg struct {
	Key   string
	Value []byte
}

// Manager is a manager to create transactions. It can help creating
// transactions when some information is required like the current nonce.
type Manager interface {
	Make(args ...Arg) (Transaction, error)

	Sync() error
}
