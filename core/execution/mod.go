// Package execution defines the abstraction of the service that runs the
// transactions against the ledger state.
package execution

import (
	"go.dedis.ch/heirloom/core/store"
	"go.dedis.ch/heirloom/core/txn"
)

// Step is a context of execution. It contains the transactions already run in
// the same batch and the one to execute. Time is the ledger timestamp, in
// seconds since the epoch, that every contract must use for the transaction.
type Step struct {
	Previous []txn.Transaction
	Current  txn.Transaction
	Time     uint64
}

// Result is the result of a transaction execution.
type Result struct {
	// Accepted is the success state of the transaction.
	Accepted bool

	// Message gives a chance to the execution to explain why a transaction has
	// failed.
	Message string
}

// Service is the execution service that defines the primitives to execute a
// transaction.
type Service interface {
	// Execute must apply the transaction to the snapshot and return the result
	// of it. An error means the execution itself failed, whereas a refused
	// transaction is a result that is not accepted.
	Execute(snap store.Snapshot, step Step) (Result, error)
}
