// Package access defines the interfaces for the authorization of the calls
// made to the contracts.
//
// An identity is proved by a proof object that travels with the call, usually
// a signed transaction. The authority checks the proof against the identity
// that a contract operation requires.
package access

import (
	"encoding"

	"go.dedis.ch/heirloom/serde"
)

// Identity is an abstraction to uniquely identify a party of the ledger, being
// a signer or a contract.
type Identity interface {
	serde.Message
	encoding.TextMarshaler

	// Equal returns true when the other object is the same identity.
	Equal(other interface{}) bool
}

// Proof is the capability carried by a call. It tells which identity
// authorized the call and can verify that claim.
type Proof interface {
	// GetIdentity returns the identity that authorized the call.
	GetIdentity() Identity

	// Verify returns nil if the proof is valid for its identity.
	Verify() error
}

// Authority is the service that gates the operations on the proof of an
// identity.
type Authority interface {
	// RequireAuth returns nil if the proof is valid and was produced by the
	// given identity, otherwise an error that must abort the call.
	RequireAuth(proof Proof, ident Identity) error
}
