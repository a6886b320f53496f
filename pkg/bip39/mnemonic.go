// Package bip39 助记词生成与种子派生 (开发签名者的根密钥来源)
package bip39

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("invalid bip-39 mnemonic")

// Generate 生成随机助记词, bits 为熵位数 (128 -> 12 词, 256 -> 24 词)
func Generate(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// Normalize 合并多余空白
func Normalize(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

func Valid(mnemonic string) bool {
	return bip39.IsMnemonicValid(Normalize(mnemonic))
}

// Seed 校验助记词 (含校验和) 后派生 64 字节种子
func Seed(mnemonic, passphrase string) ([]byte, error) {
	m := Normalize(mnemonic)
	if !bip39.IsMnemonicValid(m) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(m, passphrase), nil
}
