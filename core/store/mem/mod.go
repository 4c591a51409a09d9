// Package mem implements an in-memory snapshot that stages the writes on top
// of a readable store. The staged changes can then be applied to a writable
// store in one go, or dropped.
package mem

import (
	"sort"

	"go.dedis.ch/heirloom/core/store"
	"golang.org/x/xerrors"
)

// Snapshot is an overlay over a parent store. Reads look at the staged changes
// first and fall back to the parent.
//
// - implements store.Snapshot
type Snapshot struct {
	parent store.Readable
	values map[string][]byte
	// deleted records the keys removed in the overlay that might still exist
	// in the parent.
	deleted map[string]struct{}
}

// NewSnapshot returns an empty overlay on top of the parent. The parent can be
// nil, in which case the snapshot is a plain in-memory store.
func NewSnapshot(parent store.Readable) *Snapshot {
	return &Snapshot{
		parent:  parent,
		values:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get implements store.Readable. It returns the staged value of the key, or the
// value of the parent when the key has not been touched.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	k := string(key)

	value, found := s.values[k]
	if found {
		return append([]byte{}, value...), nil
	}

	_, found = s.deleted[k]
	if found || s.parent == nil {
		return nil, nil
	}

	value, err := s.parent.Get(key)
	if err != nil {
		return nil, xerrors.Errorf("parent: %v", err)
	}

	return value, nil
}

// Set implements store.Writable. It stages the value of the key.
func (s *Snapshot) Set(key, value []byte) error {
	k := string(key)

	s.values[k] = append([]byte{}, value...)
	delete(s.deleted, k)

	return nil
}

// Delete implements store.Writable. It stages the deletion of the key.
func (s *Snapshot) Delete(key []byte) error {
	k := string(key)

	delete(s.values, k)
	s.deleted[k] = struct{}{}

	return nil
}

// Len returns the number of staged changes.
func (s *Snapshot) Len() int {
	return len(s.values) + len(s.deleted)
}

// Apply writes the staged changes to the store in a deterministic order.
func (s *Snapshot) Apply(w store.Writable) error {
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := w.Set([]byte(key), s.values[key])
		if err != nil {
			return xerrors.Errorf("failed to set '%x': %v", key, err)
		}
	}

	keys = keys[:0]
	for key := range s.deleted {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := w.Delete([]byte(key))
		if err != nil {
			return xerrors.Errorf("failed to delete '%x': %v", key, err)
		}
	}

	return nil
}
