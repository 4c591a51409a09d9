package access

import (
	"golang.org/x/xerrors"
)

// proofAuthority is the default authority. It accepts a proof when it verifies
// and when its identity is the one required.
//
// - implements access.Authority
type proofAuthority struct{}

// NewAuthority returns a new authority that checks the proof of the calls.
func NewAuthority() Authority {
	return proofAuthority{}
}

// RequireAuth implements access.Authority. It verifies the proof and compares
// its identity with the required one.
func (proofAuthority) RequireAuth(proof Proof, ident Identity) error {
	if proof == nil {
		return xerrors.New("missing proof")
	}

	if ident == nil {
		return xerrors.New("missing identity")
	}

	err := proof.Verify()
	if err != nil {
		return xerrors.Errorf("invalid proof: %v", err)
	}

	if !ident.Equal(proof.GetIdentity()) {
		return xerrors.Errorf("proof of '%s' does not authorize '%s'",
			TextOf(proof.GetIdentity()), TextOf(ident))
	}

	return nil
}

// TextOf returns the text representation of the identity, or a placeholder if
// it cannot be marshaled.
func TextOf(ident Identity) string {
	if ident == nil {
		return "<nil>"
	}

	text, err := ident.MarshalText()
	if err != nil {
		return "<malformed>"
	}

	return string(text)
}
