package crypto_util

import (
	"encoding/hex"
	"testing"
)

func TestHashes(t *testing.T) {
	input := []byte("hello world")

	// Keccak256
	keccakHash := CalculateKeccak256(input)
	if keccakHash != "47173285a8d7341e5e972fc677286384f802f8ef42a5ec5f03bbfa254cb01fad" {
		t.Errorf("Keccak256 不匹配: 得到 %s", keccakHash)
	}

	// 分段输入与拼接输入结果一致
	if Keccak256([]byte("hello "), []byte("world")) != Keccak256(input) {
		t.Errorf("Keccak256 分段计算结果不一致")
	}

	// SHA256
	sha := SHA256(input)
	if hex.EncodeToString(sha[:]) != "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" {
		t.Errorf("SHA256 不匹配: 得到 %x", sha)
	}

	// Blake3
	blake3Hash := CalculateBlake3(input)
	if len(blake3Hash) != 64 {
		t.Errorf("Blake3 哈希长度不匹配: 得到 %d, 期望 64", len(blake3Hash))
	}
	if Blake3([]byte("a"), []byte("b")) != Blake3([]byte("ab")) {
		t.Errorf("Blake3 分段计算结果不一致")
	}
}

func TestKeccakEmpty(t *testing.T) {
	h := Keccak256()
	if hex.EncodeToString(h[:]) != "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470" {
		t.Errorf("空输入 Keccak256 不匹配: %x", h)
	}
}
