package authority

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOwner(t *testing.T) (ed25519.PrivateKey, PublicKey) {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 42
	priv := ed25519.NewKeyFromSeed(seed)
	pk, err := PublicKeyFromEd25519(priv.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return priv, pk
}

func TestWithdrawMessage(t *testing.T) {
	var id [32]byte
	id[31] = 0xff
	msg := WithdrawMessage(id)
	assert.Equal(t, "vault-bridge:withdraw:", string(msg[:len(msg)-32]))
	assert.Equal(t, id[:], msg[len(msg)-32:])
}

func TestVerifyOwnerSignature(t *testing.T) {
	priv, owner := testOwner(t)
	var id [32]byte
	id[0] = 1
	sig := ed25519.Sign(priv, WithdrawMessage(id))

	require.NoError(t, owner.Verify(WithdrawMessage(id), sig))

	// 其他请求 ID
	var other [32]byte
	other[0] = 2
	assert.ErrorIs(t, owner.Verify(WithdrawMessage(other), sig), ErrInvalidAuthorization)

	// 其他签名者
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 7
	stranger := ed25519.NewKeyFromSeed(seed)
	assert.ErrorIs(t, owner.Verify(WithdrawMessage(id), ed25519.Sign(stranger, WithdrawMessage(id))), ErrInvalidAuthorization)

	assert.ErrorIs(t, owner.Verify(WithdrawMessage(id), sig[:10]), ErrInvalidAuthorization)
	assert.ErrorIs(t, owner.Verify(WithdrawMessage(id), nil), ErrInvalidAuthorization)
}

func TestVerifyRejectsDegenerateKeys(t *testing.T) {
	sig := make([]byte, SignatureLength)

	// 单位元 (y=1) 是小阶点
	var identity PublicKey
	identity[0] = 1
	assert.ErrorIs(t, identity.Verify([]byte("m"), sig), ErrInvalidAuthorization)

	var zero PublicKey
	assert.ErrorIs(t, zero.Verify([]byte("m"), sig), ErrInvalidAuthorization)
}
