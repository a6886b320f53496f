// Package authority 处理账本侧的身份: 32 字节公钥及其 base58 文本形式，
// 以及由 (命名空间种子, 程序 ID) 确定性派生出的程序地址 (PDA)。
package authority

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const PublicKeyLength = 32

var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey 账本侧的 32 字节身份
type PublicKey [PublicKeyLength]byte

// ParsePublicKey 解析 base58 文本
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != PublicKeyLength {
		return pk, fmt.Errorf("%w: decoded %d bytes", ErrInvalidPublicKey, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustParsePublicKey 仅用于常量
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// String 返回规范文本形式 (base58)，请求 ID 的 sender 字段即使用该文本
func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
