// Package sigverify 校验签名服务的响应: 由消息哈希与可恢复签名还原签名者地址，
// 并与受信任的地址比对。
package sigverify

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"vault-bridge/pkg/address"
	"vault-bridge/pkg/crypto_util"
	"vault-bridge/pkg/errno"
)

// compactHeaderBase 紧凑签名头字节的起始值 (非压缩公钥)
const compactHeaderBase = 27

// Signature MPC 返回的可恢复签名
type Signature struct {
	BigRX      [32]byte `json:"big_r_x"`
	S          [32]byte `json:"s"`
	RecoveryID uint8    `json:"recovery_id"`
}

// Bytes 返回 r || s || v (v 为 recovery id)
func (s Signature) Bytes() []byte {
	out := make([]byte, 65)
	copy(out[:32], s.BigRX[:])
	copy(out[32:64], s.S[:])
	out[64] = s.RecoveryID
	return out
}

// FromBytes 解析 r || s || v
func FromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != 65 {
		return sig, fmt.Errorf("%w: signature must be 65 bytes, got %d", errno.ErrInvalidSignature, len(b))
	}
	copy(sig.BigRX[:], b[:32])
	copy(sig.S[:], b[32:64])
	sig.RecoveryID = b[64]
	return sig, nil
}

// MessageHash 响应的认证哈希 keccak256(requestID || payload)
func MessageHash(requestID [32]byte, payload []byte) [32]byte {
	return crypto_util.Keccak256(requestID[:], payload)
}

// Recover 从消息哈希与签名还原签名者地址
func Recover(hash [32]byte, sig Signature) ([20]byte, error) {
	var addr [20]byte
	if sig.RecoveryID >= 4 {
		return addr, fmt.Errorf("%w: recovery id %d", errno.ErrInvalidSignature, sig.RecoveryID)
	}

	compact := make([]byte, 65)
	compact[0] = compactHeaderBase + sig.RecoveryID
	copy(compact[1:33], sig.BigRX[:])
	copy(compact[33:], sig.S[:])

	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return addr, fmt.Errorf("%w: recover: %v", errno.ErrInvalidSignature, err)
	}

	addr, err = address.PubKeyToAddress(pub.SerializeUncompressed())
	if err != nil {
		return addr, fmt.Errorf("%w: %v", errno.ErrInvalidSignature, err)
	}
	return addr, nil
}

// Verify 校验签名者是否为 expected (hex 地址, 忽略大小写)
func Verify(hash [32]byte, sig Signature, expected string) error {
	addr, err := Recover(hash, sig)
	if err != nil {
		return err
	}
	recovered := address.ToChecksum(addr)
	if !address.EqualFold(recovered, expected) {
		return fmt.Errorf("%w: recovered %s, expected %s", errno.ErrInvalidSignature, recovered, expected)
	}
	return nil
}

// Verifier 绑定受信任签名者地址
type Verifier struct {
	trusted string
}

func NewVerifier(trusted string) *Verifier {
	return &Verifier{trusted: trusted}
}

func (v *Verifier) Trusted() string {
	return v.trusted
}

// VerifyResponse 校验某个请求的响应签名
func (v *Verifier) VerifyResponse(requestID [32]byte, payload []byte, sig Signature) error {
	return Verify(MessageHash(requestID, payload), sig, v.trusted)
}
