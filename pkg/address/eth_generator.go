package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidPublicKey = errors.New("invalid secp256k1 public key")

// PubKeyToAddress secp256k1 公钥转以太坊地址
// 支持 65 字节 (0x04 前缀)、去掉前缀的 64 字节以及 33 字节压缩格式
func PubKeyToAddress(pub []byte) ([20]byte, error) {
	switch {
	case len(pub) == 65 && pub[0] == 0x04:
		pub = pub[1:]
	case len(pub) == 64:
	case len(pub) == 33:
		key, err := btcec.ParsePubKey(pub)
		if err != nil {
			return [20]byte{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		pub = key.SerializeUncompressed()[1:]
	default:
		return [20]byte{}, fmt.Errorf("%w: %d bytes", ErrInvalidPublicKey, len(pub))
	}
	return common.BytesToAddress(crypto.Keccak256(pub)[12:]), nil
}

// PubKeyToChecksumAddress 公钥转 EIP-55 地址字符串
func PubKeyToChecksumAddress(pub []byte) (string, error) {
	addr, err := PubKeyToAddress(pub)
	if err != nil {
		return "", err
	}
	return ToChecksum(addr), nil
}

// ToChecksum 带 0x 前缀的 EIP-55 混合大小写地址
func ToChecksum(addr [20]byte) string {
	return common.Address(addr).Hex()
}

// EqualFold 忽略大小写比较两个 hex 地址 (0x 前缀可选); 任一方不是合法地址时为 false
func EqualFold(a, b string) bool {
	if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
		return false
	}
	return common.HexToAddress(a) == common.HexToAddress(b)
}
