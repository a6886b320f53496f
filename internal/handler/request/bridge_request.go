package request

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"vault-bridge/internal/event"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

// TxParams 目标链交易参数, 金额字段为十进制字符串
type TxParams struct {
	Value                string `json:"value" binding:"omitempty,u128"`
	GasLimit             uint64 `json:"gas_limit" binding:"required"`
	MaxFeePerGas         string `json:"max_fee_per_gas" binding:"required,u128"`
	MaxPriorityFeePerGas string `json:"max_priority_fee_per_gas" binding:"omitempty,u128"`
	Nonce                uint64 `json:"nonce"`
	ChainID              uint64 `json:"chain_id" binding:"required"`
}

// 已经过 u128 校验
func decimalOrNil(s string) *big.Int {
	if s == "" {
		return nil
	}
	v, _ := new(big.Int).SetString(s, 10)
	return v
}

func (p TxParams) ToParams() evmtx.TxParams {
	return evmtx.TxParams{
		Value:                decimalOrNil(p.Value),
		GasLimit:             p.GasLimit,
		MaxFeePerGas:         decimalOrNil(p.MaxFeePerGas),
		MaxPriorityFeePerGas: decimalOrNil(p.MaxPriorityFeePerGas),
		Nonce:                p.Nonce,
		ChainID:              p.ChainID,
	}
}

type InitiateDepositRequest struct {
	RequestID string   `json:"request_id" binding:"required,requestid"`
	Requester string   `json:"requester" binding:"required,pubkey"`
	Asset     string   `json:"erc20_address" binding:"required,hexaddr"`
	Amount    string   `json:"amount" binding:"required,u128"`
	Tx        TxParams `json:"tx_params" binding:"required"`
}

// InitiateWithdrawRequest owner_signature 为 requester 对
// "vault-bridge:withdraw:" || request_id 的 ed25519 签名 (hex)
type InitiateWithdrawRequest struct {
	RequestID      string   `json:"request_id" binding:"required,requestid"`
	Requester      string   `json:"requester" binding:"required,pubkey"`
	Asset          string   `json:"erc20_address" binding:"required,hexaddr"`
	Amount         string   `json:"amount" binding:"required,u128"`
	Recipient      string   `json:"recipient_address" binding:"required,hexaddr"`
	Tx             TxParams `json:"tx_params" binding:"required"`
	OwnerSignature string   `json:"owner_signature" binding:"required"`
}

// parties 解析已校验过格式的公共字段
func parties(id, requester, asset, amount string) (requestid.ID, authority.PublicKey, common.Address, *big.Int) {
	rid, _ := requestid.ParseID(id)
	pk, _ := authority.ParsePublicKey(requester)
	return rid, pk, common.HexToAddress(asset), decimalOrNil(amount)
}

func (r InitiateDepositRequest) Parse() (requestid.ID, authority.PublicKey, common.Address, *big.Int) {
	return parties(r.RequestID, r.Requester, r.Asset, r.Amount)
}

func (r InitiateWithdrawRequest) Parse() (requestid.ID, authority.PublicKey, common.Address, *big.Int) {
	return parties(r.RequestID, r.Requester, r.Asset, r.Amount)
}

func (r InitiateWithdrawRequest) Authorization() ([]byte, error) {
	return decodeHex("owner_signature", r.OwnerSignature)
}

// SignedResponse 签名服务对执行结果的回报
type SignedResponse struct {
	SerializedOutput string                     `json:"serialized_output" binding:"required"` // hex
	Signature        event.RecoverableSignature `json:"signature" binding:"required"`
}

func decodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errno.ErrSerialization, field, err)
	}
	return b, nil
}

func (r SignedResponse) Decode() ([]byte, sigverify.Signature, error) {
	out, err := decodeHex("serialized_output", r.SerializedOutput)
	if err != nil {
		return nil, sigverify.Signature{}, err
	}
	sig, err := r.Signature.Decode()
	if err != nil {
		return nil, sigverify.Signature{}, err
	}
	return out, sig, nil
}

// RelayNotifyRequest 前端在 Initiate 成功后通知中继者
type RelayNotifyRequest struct {
	RequestID    string `json:"request_id" binding:"required,requestid"`
	SerializedTx string `json:"serialized_tx" binding:"required"` // hex
}

func (r RelayNotifyRequest) TxBytes() ([]byte, error) {
	return decodeHex("serialized_tx", r.SerializedTx)
}

type SigningParams struct {
	KeyVersion uint32 `json:"key_version"`
	Path       string `json:"path" binding:"required"`
	Algo       string `json:"algo" binding:"required"`
	Dest       string `json:"dest" binding:"required"`
	Params     string `json:"params"`
}

func (p SigningParams) ToParams() requestid.SigningParams {
	return requestid.SigningParams(p)
}

// VaultSignatureRequest IVault deposit/withdraw 调用的签名请求
type VaultSignatureRequest struct {
	Authority string        `json:"authority" binding:"required,pubkey"`
	Operation string        `json:"operation" binding:"required,oneof=deposit withdraw"`
	Vault     string        `json:"to_address" binding:"required,hexaddr"`
	Recipient string        `json:"recipient_address" binding:"required,hexaddr"`
	Amount    string        `json:"amount" binding:"required,u128"`
	Tx        TxParams      `json:"tx_params" binding:"required"`
	Signing   SigningParams `json:"signing_params" binding:"required"`
}

func (r VaultSignatureRequest) Parse() (evmtx.Operation, authority.PublicKey, evmtx.VaultTransaction) {
	op := evmtx.OperationDeposit
	if r.Operation == evmtx.OperationWithdraw.String() {
		op = evmtx.OperationWithdraw
	}
	pk, _ := authority.ParsePublicKey(r.Authority)
	return op, pk, evmtx.VaultTransaction{
		To:        common.HexToAddress(r.Vault),
		Recipient: common.HexToAddress(r.Recipient),
		Amount:    decimalOrNil(r.Amount),
		Params:    r.Tx.ToParams(),
	}
}
