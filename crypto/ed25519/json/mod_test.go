package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/heirloom/crypto/ed25519"
	"go.dedis.ch/heirloom/internal/testing/fake"
)

func TestPubkeyFormat_Encode(t *testing.T) {
	signer := ed25519.NewSigner()

	format := pubkeyFormat{}
	ctx := fake.NewContext()

	data, err := format.Encode(ctx, signer.GetPublicKey())
	require.NoError(t, err)
	require.Regexp(t, `{"Name":"CURVE-ED25519","Data":"[^"]+"}`, string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), signer.GetPublicKey())
	require.EqualError(t, err, fake.Err("couldn't marshal"))
}

func TestPubkeyFormat_Decode(t *testing.T) {
	signer := ed25519.NewSigner()

	format := pubkeyFormat{}
	ctx := fake.NewContext()

	data, err := format.Encode(ctx, signer.GetPublicKey())
	require.NoError(t, err)

	pubkey, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(pubkey))

	_, err = format.Decode(ctx, []byte(`{"Name":"CURVE-ED25519","Data":[]}`))
	require.EqualError(t, err,
		"couldn't create public key: couldn't unmarshal point: invalid Ed25519 curve point")

	_, err = format.Decode(ctx, []byte(`{"Name":"BLS"}`))
	require.EqualError(t, err, "unexpected algorithm 'BLS'")

	_, err = format.Decode(fake.NewBadContext(), []byte(`{}`))
	require.EqualError(t, err, fake.Err("couldn't unmarshal public key"))
}

func TestSigFormat_Encode(t *testing.T) {
	signer := ed25519.NewSigner()

	sig, err := signer.Sign([]byte("deadline"))
	require.NoError(t, err)

	format := sigFormat{}
	ctx := fake.NewContext()

	data, err := format.Encode(ctx, sig)
	require.NoError(t, err)
	require.Regexp(t, `{"Name":"CURVE-ED25519","Data":"[^"]+"}`, string(data))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")

	_, err = format.Encode(fake.NewBadContext(), sig)
	require.EqualError(t, err, fake.Err("couldn't marshal"))
}

func TestSigFormat_Decode(t *testing.T) {
	signer := ed25519.NewSigner()

	sig, err := signer.Sign([]byte("deadline"))
	require.NoError(t, err)

	format := sigFormat{}
	ctx := fake.NewContext()

	data, err := format.Encode(ctx, sig)
	require.NoError(t, err)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.True(t, sig.Equal(msg.(ed25519.Signature)))

	_, err = format.Decode(fake.NewBadContext(), []byte(`{}`))
	require.EqualError(t, err, fake.Err("couldn't unmarshal signature"))
}
