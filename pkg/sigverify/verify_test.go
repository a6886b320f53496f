package sigverify

import (
	"crypto/ecdsa"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/pkg/errno"
)

func sign(t *testing.T, key *ecdsa.PrivateKey, hash [32]byte) Signature {
	t.Helper()
	raw, err := crypto.Sign(hash[:], key)
	require.NoError(t, err)
	sig, err := FromBytes(raw)
	require.NoError(t, err)
	return sig
}

func TestMessageHash(t *testing.T) {
	var id [32]byte
	id[0] = 0x11
	payload := []byte{0x01}
	h := MessageHash(id, payload)
	assert.Equal(t, crypto.Keccak256(id[:], payload), h[:])
}

func TestVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)

	var id [32]byte
	id[5] = 0x42
	payload := []byte{0x01}
	hash := MessageHash(id, payload)
	sig := sign(t, key, hash)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Verify(hash, sig, signer.Hex()))
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.NoError(t, Verify(hash, sig, strings.ToLower(signer.Hex())))
		assert.NoError(t, Verify(hash, sig, strings.ToUpper(signer.Hex()[2:])))
	})

	t.Run("recovery id out of range", func(t *testing.T) {
		bad := sig
		bad.RecoveryID = 4
		assert.ErrorIs(t, Verify(hash, bad, signer.Hex()), errno.ErrInvalidSignature)
	})

	t.Run("different message", func(t *testing.T) {
		other := MessageHash(id, []byte{0x00})
		assert.ErrorIs(t, Verify(other, sig, signer.Hex()), errno.ErrInvalidSignature)
	})

	t.Run("different signer", func(t *testing.T) {
		otherKey, err := crypto.GenerateKey()
		require.NoError(t, err)
		otherSig := sign(t, otherKey, hash)
		assert.ErrorIs(t, Verify(hash, otherSig, signer.Hex()), errno.ErrInvalidSignature)
	})

	t.Run("garbage signature", func(t *testing.T) {
		var zero Signature
		assert.ErrorIs(t, Verify(hash, zero, signer.Hex()), errno.ErrInvalidSignature)
	})
}

func TestRecoverMatchesGoEthereum(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	hash := crypto.Keccak256Hash([]byte("response"))
	sig := sign(t, key, hash)

	addr, err := Recover(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Bytes(), addr[:])
}

func TestVerifierVerifyResponse(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	v := NewVerifier(crypto.PubkeyToAddress(key.PublicKey).Hex())

	var id [32]byte
	payload := []byte{0x00}
	sig := sign(t, key, MessageHash(id, payload))

	assert.NoError(t, v.VerifyResponse(id, payload, sig))
	assert.Error(t, v.VerifyResponse(id, []byte{0x01}, sig))
}

func TestSignatureBytesRoundTrip(t *testing.T) {
	var sig Signature
	sig.BigRX[0] = 1
	sig.S[31] = 2
	sig.RecoveryID = 1

	parsed, err := FromBytes(sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)

	_, err = FromBytes(make([]byte, 64))
	assert.ErrorIs(t, err, errno.ErrInvalidSignature)
}
