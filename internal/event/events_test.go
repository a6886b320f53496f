package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/sigverify"
)

func TestRecoverableSignature(t *testing.T) {
	var sig sigverify.Signature
	sig.BigRX[0] = 0xaa
	sig.S[31] = 0x01
	sig.RecoveryID = 1

	enc := NewRecoverableSignature(sig)
	assert.Equal(t, "0xaa00000000000000000000000000000000000000000000000000000000000000", enc.BigRX)

	got, err := enc.Decode()
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	// 不带 0x 前缀同样接受
	enc.S = enc.S[2:]
	_, err = enc.Decode()
	assert.NoError(t, err)

	enc.BigRX = "0x1234"
	_, err = enc.Decode()
	assert.ErrorIs(t, err, errno.ErrInvalidSignature)

	enc = NewRecoverableSignature(sig)
	enc.S = "zz"
	_, err = enc.Decode()
	assert.ErrorIs(t, err, errno.ErrInvalidSignature)
}
