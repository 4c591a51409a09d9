package fake

import (
	"crypto/sha256"
	"hash"
)

// Hash is a fake hash that can fail after a number of writes.
//
// - implements hash.Hash
type Hash struct {
	hash.Hash
	delay int
	err   error
}

// NewBadHash returns a hash that fails on the first write.
func NewBadHash() *Hash {
	return &Hash{Hash: sha256.New(), err: fakeErr}
}

// NewBadHashWithDelay returns a hash that fails after the given number of
// successful writes.
func NewBadHashWithDelay(delay int) *Hash {
	return &Hash{Hash: sha256.New(), delay: delay, err: fakeErr}
}

// Write implements hash.Hash.
func (h *Hash) Write(in []byte) (int, error) {
	if h.delay > 0 {
		h.delay--
		return h.Hash.Write(in)
	}

	if h.err != nil {
		return 0, h.err
	}

	return h.Hash.Write(in)
}

// HashFactory is a fake hash factory that returns the same hash.
//
// - implements crypto.HashFactory
type HashFactory struct {
	hash *Hash
}

// NewHashFactory returns a factory that returns the given hash.
func NewHashFactory(h *Hash) HashFactory {
	return HashFactory{hash: h}
}

// New implements crypto.HashFactory.
func (f HashFactory) New() hash.Hash {
	return f.hash
}
