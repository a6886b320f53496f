// Package safe_random 基于 crypto/rand 的随机值, 用于锁令牌与任务 ID
package safe_random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Reader 随机源, 测试可替换
var Reader io.Reader = rand.Reader

// Bytes 返回 n 个随机字节
func Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("safe_random: invalid length %d", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		return nil, fmt.Errorf("safe_random: read: %w", err)
	}
	return b, nil
}

// HexString 返回 n 个随机字节的 hex 编码 (长度 2n)
func HexString(n int) (string, error) {
	b, err := Bytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Bytes32 返回 32 字节随机值
func Bytes32() ([32]byte, error) {
	var out [32]byte
	b, err := Bytes(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
