package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Keccak256 对多段输入按顺序拼接后计算 Keccak-256 (以太坊使用的哈希算法)。
func Keccak256(parts ...[]byte) [32]byte {
	hash := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		hash.Write(p)
	}
	var out [32]byte
	copy(out[:], hash.Sum(nil))
	return out
}

// SHA256 对多段输入按顺序拼接后计算 SHA-256。
func SHA256(parts ...[]byte) [32]byte {
	hash := sha256.New()
	for _, p := range parts {
		hash.Write(p)
	}
	var out [32]byte
	copy(out[:], hash.Sum(nil))
	return out
}

// Blake3 计算输入的 Blake3 哈希值，用作消息去重的指纹，不参与任何协议哈希。
func Blake3(parts ...[]byte) [32]byte {
	hash := blake3.New(32, nil)
	for _, p := range parts {
		hash.Write(p)
	}
	var out [32]byte
	copy(out[:], hash.Sum(nil))
	return out
}

// CalculateKeccak256 计算输入的 Keccak256 哈希值并返回 Hex 字符串。
func CalculateKeccak256(data []byte) string {
	h := Keccak256(data)
	return hex.EncodeToString(h[:])
}

// CalculateBlake3 计算输入的 Blake3 哈希值并返回 Hex 字符串。
func CalculateBlake3(data []byte) string {
	h := Blake3(data)
	return hex.EncodeToString(h[:])
}
