// Package types defines the persisted record of a will.
package types

import (
	"go.dedis.ch/heirloom/core/clock"
	"go.dedis.ch/heirloom/crypto"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/serde"
	"go.dedis.ch/heirloom/serde/registry"
	"golang.org/x/xerrors"
)

var recordFormats = registry.NewSimpleRegistry()

// RegisterRecordFormat registers the engine for the provided format.
func RegisterRecordFormat(f serde.Format, e serde.FormatEngine) {
	recordFormats.Register(f, e)
}

// Record is the state of an initialized will. Every field is set once at
// initialization, except the time of the last check-in.
//
// - implements serde.Message
type Record struct {
	Owner         crypto.PublicKey
	Beneficiary   crypto.PublicKey
	CheckInPeriod uint64
	LastCheckIn   uint64
	Asset         string
}

// Deadline returns the time after which the beneficiary can claim. It
// saturates at the largest time, which is never passed.
func (r Record) Deadline() uint64 {
	return clock.SaturatingAdd(r.LastCheckIn, r.CheckInPeriod)
}

// Claimable returns true if the deadline is strictly passed at the given time.
func (r Record) Claimable(now uint64) bool {
	return now > r.Deadline()
}

// Serialize implements serde.Message. It returns the data of the record in the
// format of the context.
func (r Record) Serialize(ctx serde.Context) ([]byte, error) {
	format := recordFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, r)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	return data, nil
}

// PublicKeyFac is the key of the public key factory.
type PublicKeyFac struct{}

// RecordFactory is the factory to deserialize records.
//
// - implements serde.Factory
type RecordFactory struct {
	pubkeyFac crypto.PublicKeyFactory
}

// NewRecordFactory returns a factory of records with Ed25519 parties.
func NewRecordFactory() RecordFactory {
	return RecordFactory{
		pubkeyFac: ed25519.NewPublicKeyFactory(),
	}
}

// Deserialize implements serde.Factory.
func (f RecordFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	return f.RecordOf(ctx, data)
}

// RecordOf returns the record of the data if appropriate, otherwise an error.
func (f RecordFactory) RecordOf(ctx serde.Context, data []byte) (Record, error) {
	format := recordFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, PublicKeyFac{}, f.pubkeyFac)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return Record{}, xerrors.Errorf("failed to decode: %v", err)
	}

	record, ok := msg.(Record)
	if !ok {
		return Record{}, xerrors.Errorf("invalid record of type '%T'", msg)
	}

	return record, nil
}
