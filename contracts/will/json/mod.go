// Package json defines the JSON message of the will record. The field names
// are part of the persisted state and must not change.
package json

import (
	"encoding/json"

	"go.dedis.ch/heirloom/contracts/will/types"
	"go.dedis.ch/heirloom/crypto"
	"go.dedis.ch/heirloom/serde"
	"golang.org/x/xerrors"
)

func init() {
	types.RegisterRecordFormat(serde.FormatJSON, recordFormat{})
}

// RecordJSON is the JSON message of a will record.
type RecordJSON struct {
	Owner         json.RawMessage
	Beneficiary   json.RawMessage
	CheckInPeriod uint64
	LastCheckIn   uint64
	Asset         string
}

// recordFormat is the JSON format engine of the will records.
//
// - implements serde.FormatEngine
type recordFormat struct{}

// Encode implements serde.FormatEngine. It returns the JSON data of the record
// if appropriate, otherwise an error.
func (recordFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	record, ok := msg.(types.Record)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	if record.Owner == nil || record.Beneficiary == nil {
		return nil, xerrors.New("missing party")
	}

	owner, err := record.Owner.Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode owner: %v", err)
	}

	beneficiary, err := record.Beneficiary.Serialize(ctx)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode beneficiary: %v", err)
	}

	m := RecordJSON{
		Owner:         owner,
		Beneficiary:   beneficiary,
		CheckInPeriod: record.CheckInPeriod,
		LastCheckIn:   record.LastCheckIn,
		Asset:         record.Asset,
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It returns the record of the JSON data
// if appropriate, otherwise an error.
func (recordFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := RecordJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal: %v", err)
	}

	fac := ctx.GetFactory(types.PublicKeyFac{})

	factory, ok := fac.(crypto.PublicKeyFactory)
	if !ok {
		return nil, xerrors.Errorf("invalid public key factory '%T'", fac)
	}

	owner, err := factory.PublicKeyOf(ctx, m.Owner)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode owner: %v", err)
	}

	beneficiary, err := factory.PublicKeyOf(ctx, m.Beneficiary)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode beneficiary: %v", err)
	}

	record := types.Record{
		Owner:         owner,
		Beneficiary:   beneficiary,
		CheckInPeriod: m.CheckInPeriod,
		LastCheckIn:   m.LastCheckIn,
		Asset:         m.Asset,
	}

	return record, nil
}
