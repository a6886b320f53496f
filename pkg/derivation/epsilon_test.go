package derivation

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/pkg/authority"
)

const basePublicKey = "0x044eef776e4f257d68983e45b340c2e9546c5df95447900b6aadfec68fb46fdee257e26b8ba383ddba9914b33c60e869265f859566fff4baef283c54d821ca3b64"

func TestEpsilon(t *testing.T) {
	requester := "3si68i2yXFAGy5k8BpqGpPJR5wE27id1Jenx3uN8GCws"
	eps := Epsilon(requester, "root")

	// 与直接对拼接串做 keccak 后模 n 的结果一致
	h := crypto.Keccak256([]byte(EpsilonPrefix + "," + SolanaChainID + "," + requester + ",root"))
	want := new(big.Int).Mod(new(big.Int).SetBytes(h), btcec.S256().N)
	got := eps.Bytes()
	assert.Equal(t, 0, want.Cmp(new(big.Int).SetBytes(got[:])))

	other := Epsilon(requester, "root2")
	assert.False(t, eps.Equals(&other))
}

func TestChildKeysAgree(t *testing.T) {
	root, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	childPriv, err := DeriveChildPrivateKey(root, "requester", "path")
	require.NoError(t, err)
	childPub, err := DeriveChildPublicKey(root.PubKey(), "requester", "path")
	require.NoError(t, err)

	assert.True(t, childPriv.PubKey().IsEqual(childPub))
	assert.False(t, childPub.IsEqual(root.PubKey()))
}

func TestDeriveAddressMatchesGoEthereum(t *testing.T) {
	root, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	childPriv, err := DeriveChildPrivateKey(root, "requester", "path")
	require.NoError(t, err)
	addr, err := DeriveAddress(root.PubKey(), "requester", "path")
	require.NoError(t, err)

	ecdsaKey, err := crypto.ToECDSA(childPriv.Serialize())
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(ecdsaKey.PublicKey).Bytes(), addr[:])
}

func TestParseBasePublicKey(t *testing.T) {
	pub, err := ParseBasePublicKey(basePublicKey)
	require.NoError(t, err)
	assert.Len(t, pub.SerializeUncompressed(), 65)

	_, err = ParseBasePublicKey("0x04abcd")
	assert.ErrorIs(t, err, ErrInvalidBaseKey)
	_, err = ParseBasePublicKey("not hex")
	assert.ErrorIs(t, err, ErrInvalidBaseKey)
}

func TestDeriverAddresses(t *testing.T) {
	base, err := ParseBasePublicKey(basePublicKey)
	require.NoError(t, err)
	program := authority.MustParsePublicKey("3si68i2yXFAGy5k8BpqGpPJR5wE27id1Jenx3uN8GCws")
	d := NewDeriver(base, authority.NewDeriver(program))

	var alice, bob authority.PublicKey
	alice[0], bob[0] = 1, 2

	a1, err := d.DepositAddress(alice)
	require.NoError(t, err)
	a2, err := d.DepositAddress(alice)
	require.NoError(t, err)
	b, err := d.DepositAddress(bob)
	require.NoError(t, err)
	vault, err := d.VaultAddress()
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.NotEqual(t, a1, vault)
	assert.Len(t, vault, 42)
}
