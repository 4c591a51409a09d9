package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/internal/testing/fake"
	"go.dedis.ch/heirloom/serde"
)

func init() {
	RegisterRecordFormat(fake.GoodFormat, fake.Format{Msg: Record{Asset: "XLM"}})
	RegisterRecordFormat(fake.BadFormat, fake.NewBadFormat())
	RegisterRecordFormat(serde.Format("BAD_TYPE"), fake.Format{Msg: fake.Message{}})
}

func TestRecord_Deadline(t *testing.T) {
	r := Record{LastCheckIn: 1000, CheckInPeriod: 15552000}
	require.Equal(t, uint64(15553000), r.Deadline())

	r = Record{LastCheckIn: math.MaxUint64 - 1, CheckInPeriod: 10}
	require.Equal(t, uint64(math.MaxUint64), r.Deadline())
	require.False(t, r.Claimable(math.MaxUint64))
}

func TestRecord_Claimable(t *testing.T) {
	r := Record{LastCheckIn: 1000, CheckInPeriod: 500}

	require.False(t, r.Claimable(1000))
	require.False(t, r.Claimable(1500))
	require.True(t, r.Claimable(1501))

	r.CheckInPeriod = 0
	require.False(t, r.Claimable(1000))
	require.True(t, r.Claimable(1001))
}

func TestRecord_Serialize(t *testing.T) {
	r := Record{Owner: ed25519.NewSigner().GetPublicKey()}

	data, err := r.Serialize(fake.NewContext())
	require.NoError(t, err)
	require.Equal(t, fake.GetFakeFormatValue(), data)

	_, err = r.Serialize(fake.NewBadContext())
	require.EqualError(t, err, fake.Err("failed to encode"))
}

func TestRecordFactory_RecordOf(t *testing.T) {
	fac := NewRecordFactory()

	r, err := fac.RecordOf(fake.NewContext(), nil)
	require.NoError(t, err)
	require.Equal(t, "XLM", r.Asset)

	msg, err := fac.Deserialize(fake.NewContext(), nil)
	require.NoError(t, err)
	require.Equal(t, r, msg)

	_, err = fac.RecordOf(fake.NewBadContext(), nil)
	require.EqualError(t, err, fake.Err("failed to decode"))

	_, err = fac.RecordOf(fake.NewContextWithFormat(serde.Format("BAD_TYPE")), nil)
	require.EqualError(t, err, "invalid record of type 'fake.Message'")
}
