package authority

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const SignatureLength = ed25519.SignatureSize

// withdrawDomain 提现授权消息的域前缀, 防止同一签名被挪作他用
const withdrawDomain = "vault-bridge:withdraw:"

var ErrInvalidAuthorization = errors.New("invalid owner authorization")

// WithdrawMessage 余额所有者授权提现时签名的消息: 域前缀 || request_id
// 请求 ID 已覆盖资产, 金额, 收款地址和 nonce
func WithdrawMessage(requestID [32]byte) []byte {
	msg := make([]byte, 0, len(withdrawDomain)+len(requestID))
	msg = append(msg, withdrawDomain...)
	return append(msg, requestID[:]...)
}

// Verify 校验 ed25519 签名; 小阶点公钥一律拒绝
func (pk PublicKey) Verify(message, sig []byte) error {
	if len(sig) != SignatureLength {
		return fmt.Errorf("%w: signature is %d bytes", ErrInvalidAuthorization, len(sig))
	}
	p, err := new(edwards25519.Point).SetBytes(pk[:])
	if err != nil {
		return fmt.Errorf("%w: key is not a curve point", ErrInvalidAuthorization)
	}
	if new(edwards25519.Point).MultByCofactor(p).Equal(edwards25519.NewIdentityPoint()) == 1 {
		return fmt.Errorf("%w: small order key", ErrInvalidAuthorization)
	}
	if !ed25519.Verify(ed25519.PublicKey(pk[:]), message, sig) {
		return ErrInvalidAuthorization
	}
	return nil
}

// PublicKeyFromEd25519 转换标准库公钥
func PublicKeyFromEd25519(pub ed25519.PublicKey) (PublicKey, error) {
	var pk PublicKey
	if len(pub) != PublicKeyLength {
		return pk, fmt.Errorf("%w: %d bytes", ErrInvalidPublicKey, len(pub))
	}
	copy(pk[:], pub)
	return pk, nil
}
