// Package derivation 实现 MPC 子密钥派生:
// child = base + ε·G, ε = keccak256(prefix,chainID,requester,path) mod n。
package derivation

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"vault-bridge/pkg/address"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/crypto_util"
)

const (
	EpsilonPrefix = "sig.network v1.0.0 epsilon derivation"
	// SolanaChainID 请求方所在链的 CAIP 标识 (0x800001f5)
	SolanaChainID = "0x800001f5"
	// RootPath 全局金库使用的派生路径
	RootPath = "root"
)

var (
	ErrInvalidBaseKey = errors.New("invalid base public key")
	ErrDegenerateKey  = errors.New("derived key is the point at infinity")
)

// Epsilon 计算派生标量
func Epsilon(requester, path string) btcec.ModNScalar {
	msg := fmt.Sprintf("%s,%s,%s,%s", EpsilonPrefix, SolanaChainID, requester, path)
	hash := crypto_util.Keccak256([]byte(msg))

	var eps btcec.ModNScalar
	eps.SetByteSlice(hash[:]) // 溢出时自动模 n
	return eps
}

// ParseBasePublicKey 解析 hex 编码的公钥 (压缩或非压缩, 可带 0x)
func ParseBasePublicKey(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseKey, err)
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseKey, err)
	}
	return pub, nil
}

// DeriveChildPublicKey base + ε·G
func DeriveChildPublicKey(base *btcec.PublicKey, requester, path string) (*btcec.PublicKey, error) {
	eps := Epsilon(requester, path)

	var epsPoint, basePoint, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&eps, &epsPoint)
	base.AsJacobian(&basePoint)
	btcec.AddNonConst(&epsPoint, &basePoint, &sum)

	if sum.Z.IsZero() {
		return nil, ErrDegenerateKey
	}
	sum.ToAffine()
	return btcec.NewPublicKey(&sum.X, &sum.Y), nil
}

// DeriveChildPrivateKey (root + ε) mod n
func DeriveChildPrivateKey(root *btcec.PrivateKey, requester, path string) (*btcec.PrivateKey, error) {
	eps := Epsilon(requester, path)

	k := root.Key
	k.Add(&eps)
	if k.IsZero() {
		return nil, ErrDegenerateKey
	}
	b := k.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv, nil
}

// DeriveAddress 派生子公钥对应的以太坊地址
func DeriveAddress(base *btcec.PublicKey, requester, path string) ([20]byte, error) {
	child, err := DeriveChildPublicKey(base, requester, path)
	if err != nil {
		return [20]byte{}, err
	}
	return address.PubKeyToAddress(child.SerializeUncompressed())
}

// Deriver 组合 PDA 与 epsilon 派生, 计算用户充值地址与金库地址
type Deriver struct {
	base        *btcec.PublicKey
	authorities *authority.Deriver
}

func NewDeriver(base *btcec.PublicKey, authorities *authority.Deriver) *Deriver {
	return &Deriver{base: base, authorities: authorities}
}

// DepositAddress 用户专属的充值地址: requester = vault_authority PDA, path = 用户公钥
func (d *Deriver) DepositAddress(user authority.PublicKey) (string, error) {
	pda, err := d.authorities.VaultAuthority(user)
	if err != nil {
		return "", err
	}
	addr, err := DeriveAddress(d.base, pda.String(), user.String())
	if err != nil {
		return "", err
	}
	return address.ToChecksum(addr), nil
}

// VaultAddress 全局金库地址: requester = global_vault_authority PDA, path = "root"
func (d *Deriver) VaultAddress() (string, error) {
	pda, err := d.authorities.GlobalVaultAuthority()
	if err != nil {
		return "", err
	}
	addr, err := DeriveAddress(d.base, pda.String(), RootPath)
	if err != nil {
		return "", err
	}
	return address.ToChecksum(addr), nil
}
