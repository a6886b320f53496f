package authority

import (
	"bytes"
	"encoding/json"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bridgeProgram = "3si68i2yXFAGy5k8BpqGpPJR5wE27id1Jenx3uN8GCws"

func TestParsePublicKey(t *testing.T) {
	pk, err := ParsePublicKey(bridgeProgram)
	require.NoError(t, err)
	assert.Equal(t, bridgeProgram, pk.String())

	zero, err := ParsePublicKey("11111111111111111111111111111111")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = ParsePublicKey("0OIl")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = ParsePublicKey("2")
	assert.ErrorIs(t, err, ErrInvalidPublicKey, "decodes to a single byte")
}

func TestPublicKeyJSON(t *testing.T) {
	type wrapper struct {
		Key PublicKey `json:"key"`
	}
	in := wrapper{Key: MustParsePublicKey(bridgeProgram)}
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"`+bridgeProgram+`"}`, string(raw))

	var out wrapper
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestIsOnCurve(t *testing.T) {
	assert.True(t, IsOnCurve(edwards25519.NewGeneratorPoint().Bytes()))
	assert.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestFindProgramAddress(t *testing.T) {
	program := MustParsePublicKey(bridgeProgram)
	user := MustParsePublicKey("4uvZW8K4g4jBg7dzPNbb9XDxJLFBK7V6iC76uofmYvEU")

	seeds := [][]byte{[]byte(SeedVaultAuthority), user[:]}
	pda, bump, err := FindProgramAddress(seeds, program)
	require.NoError(t, err)
	assert.False(t, IsOnCurve(pda[:]), "program address must be off curve")

	// 用找到的 bump 重新计算，结果一致
	again, err := CreateProgramAddress(append(seeds, []byte{bump}), program)
	require.NoError(t, err)
	assert.Equal(t, pda, again)

	// 输入切片不应被修改
	assert.Len(t, seeds, 2)

	d := NewDeriver(program)
	viaDeriver, err := d.VaultAuthority(user)
	require.NoError(t, err)
	assert.Equal(t, pda, viaDeriver)

	global, err := d.GlobalVaultAuthority()
	require.NoError(t, err)
	assert.NotEqual(t, pda, global)
}

func TestFindProgramAddressSeedTooLong(t *testing.T) {
	program := MustParsePublicKey(bridgeProgram)
	_, _, err := FindProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLength+1)}, program)
	assert.ErrorIs(t, err, ErrMaxSeedLengthExceeded)
}

func TestPendingAddressesDistinct(t *testing.T) {
	d := NewDeriver(MustParsePublicKey(bridgeProgram))
	var id [32]byte
	id[0] = 1

	dep, err := d.PendingDeposit(id)
	require.NoError(t, err)
	wd, err := d.PendingWithdrawal(id)
	require.NoError(t, err)
	assert.NotEqual(t, dep, wd)
}
