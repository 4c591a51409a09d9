package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/contracts/will/types"
	"go.dedis.ch/heirloom/crypto/ed25519"
	_ "go.dedis.ch/heirloom/crypto/ed25519/json"
	"go.dedis.ch/heirloom/internal/testing/fake"
	"go.dedis.ch/heirloom/serde"
)

func TestRecordFormat_Encode(t *testing.T) {
	format := recordFormat{}
	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	record := makeRecord()

	data, err := format.Encode(ctx, record)
	require.NoError(t, err)
	require.Regexp(t, `^{"Owner":{"Name":"CURVE-ED25519","Data":"[^"]+"},`+
		`"Beneficiary":{"Name":"CURVE-ED25519","Data":"[^"]+"},`+
		`"CheckInPeriod":15552000,"LastCheckIn":1000,"Asset":"XLM"}$`, string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(ctx, types.Record{})
	require.EqualError(t, err, "missing party")

	_, err = format.Encode(fake.NewBadContext(), record)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to encode owner: ")
}

func TestRecordFormat_Decode(t *testing.T) {
	format := recordFormat{}
	ctx := fake.NewContextWithFormat(serde.FormatJSON)
	ctx = serde.WithFactory(ctx, types.PublicKeyFac{}, ed25519.NewPublicKeyFactory())

	record := makeRecord()

	data, err := format.Encode(ctx, record)
	require.NoError(t, err)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)

	decoded := msg.(types.Record)
	require.True(t, record.Owner.Equal(decoded.Owner))
	require.True(t, record.Beneficiary.Equal(decoded.Beneficiary))
	require.Equal(t, record.CheckInPeriod, decoded.CheckInPeriod)
	require.Equal(t, record.LastCheckIn, decoded.LastCheckIn)
	require.Equal(t, record.Asset, decoded.Asset)

	_, err = format.Decode(fake.NewBadContext(), data)
	require.EqualError(t, err, fake.Err("failed to unmarshal"))

	_, err = format.Decode(fake.NewContextWithFormat(serde.FormatJSON), data)
	require.EqualError(t, err, "invalid public key factory '<nil>'")

	_, err = format.Decode(ctx, []byte(`{"Owner":{}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode owner: ")

	owner, err := record.Owner.Serialize(ctx)
	require.NoError(t, err)

	_, err = format.Decode(ctx, []byte(`{"Owner":`+string(owner)+`,"Beneficiary":{}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode beneficiary: ")
}

func makeRecord() types.Record {
	return types.Record{
		Owner:         ed25519.NewSigner().GetPublicKey(),
		Beneficiary:   ed25519.NewSigner().GetPublicKey(),
		CheckInPeriod: 15552000,
		LastCheckIn:   1000,
		Asset:         "XLM",
	}
}
