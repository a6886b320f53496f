package bip32

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"vault-bridge/pkg/address"
)

// Wallet BIP-32 主密钥
type Wallet struct {
	master *hdkeychain.ExtendedKey
}

// NewMasterKeyFromSeed 种子长度需在 16~64 字节之间
func NewMasterKeyFromSeed(seed []byte) (*Wallet, error) {
	if len(seed) < hdkeychain.MinSeedBytes || len(seed) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidSeed
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("new master key: %w", err)
	}
	return &Wallet{master: master}, nil
}

func (w *Wallet) MasterKey() *hdkeychain.ExtendedKey {
	return w.master
}

// DerivePath 逐级派生扩展私钥
func (w *Wallet) DerivePath(s string) (*hdkeychain.ExtendedKey, error) {
	path, err := ParsePath(s)
	if err != nil {
		return nil, err
	}
	key := w.master
	for _, index := range path {
		if key, err = key.Derive(index); err != nil {
			return nil, fmt.Errorf("derive %s at %d: %w", path, index, err)
		}
	}
	return key, nil
}

// PrivateKey 派生路径对应的 secp256k1 私钥
func (w *Wallet) PrivateKey(path string) (*btcec.PrivateKey, error) {
	key, err := w.DerivePath(path)
	if err != nil {
		return nil, err
	}
	return key.ECPrivKey()
}

// EthereumAddress 派生路径对应的 EIP-55 地址
func (w *Wallet) EthereumAddress(path string) (string, error) {
	priv, err := w.PrivateKey(path)
	if err != nil {
		return "", err
	}
	return address.PubKeyToChecksumAddress(priv.PubKey().SerializeUncompressed())
}
