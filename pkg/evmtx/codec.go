// Package evmtx 构造目标链 (EVM) 的未签名交易，并给出签名与广播使用的规范字节。
//
// 字节布局固定为 0x02 || rlp([chainId, nonce, maxPriorityFeePerGas, maxFeePerGas,
// gasLimit, to, value, data, accessList])。请求 ID 由这些字节计算，
// 任何字段顺序或编码变化都会让两端已商定的请求 ID 全部失效。
package evmtx

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"vault-bridge/pkg/errno"
)

const erc20ABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("evmtx: parse erc20 abi: %v", err))
	}
}

// Operation 转账调用的种类
type Operation int

const (
	// OperationDeposit 转给协议固定的收款地址
	OperationDeposit Operation = iota + 1
	// OperationWithdraw 转给调用方指定的收款地址
	OperationWithdraw
)

func (o Operation) String() string {
	switch o {
	case OperationDeposit:
		return "deposit"
	case OperationWithdraw:
		return "withdraw"
	default:
		return fmt.Sprintf("operation(%d)", int(o))
	}
}

// Transfer 一次 ERC20 转账调用
type Transfer struct {
	Operation Operation
	Asset     common.Address // ERC20 合约地址, 即交易的 to
	Recipient common.Address // 仅 OperationWithdraw 使用
	Amount    *big.Int
}

// Unsigned 未签名交易及其规范字节
type Unsigned struct {
	Tx    *types.Transaction
	Bytes []byte
}

// SigningHash 规范字节的 keccak256，即 MPC 需要签名的哈希
func (u Unsigned) SigningHash() common.Hash {
	return crypto.Keccak256Hash(u.Bytes)
}

// Codec 交易编解码器
type Codec struct {
	depositRecipient common.Address
}

func NewCodec(depositRecipient common.Address) *Codec {
	return &Codec{depositRecipient: depositRecipient}
}

func (c *Codec) DepositRecipient() common.Address {
	return c.depositRecipient
}

// TransferCall 编码 ERC20 transfer(address,uint256) 调用数据
func TransferCall(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: pack transfer: %v", errno.ErrSerialization, err)
	}
	return data, nil
}

// BuildTransfer 根据操作类型构造 ERC20 转账交易
func (c *Codec) BuildTransfer(t Transfer, p TxParams) (Unsigned, error) {
	var recipient common.Address
	switch t.Operation {
	case OperationDeposit:
		recipient = c.depositRecipient
	case OperationWithdraw:
		recipient = t.Recipient
	default:
		return Unsigned{}, fmt.Errorf("%w: %s", errno.ErrUnknownOperation, t.Operation)
	}
	if err := CheckAmount("amount", t.Amount, false); err != nil {
		return Unsigned{}, err
	}

	data, err := TransferCall(recipient, t.Amount)
	if err != nil {
		return Unsigned{}, err
	}
	return Build(t.Asset, data, p)
}

// Build 用给定地址与调用数据组装 EIP-1559 未签名交易
func Build(to common.Address, data []byte, p TxParams) (Unsigned, error) {
	inner := &types.DynamicFeeTx{
		ChainID:    new(big.Int).SetUint64(p.ChainID),
		Nonce:      p.Nonce,
		GasTipCap:  orZero(p.MaxPriorityFeePerGas),
		GasFeeCap:  orZero(p.MaxFeePerGas),
		Gas:        p.GasLimit,
		To:         &to,
		Value:      orZero(p.Value),
		Data:       data,
		AccessList: types.AccessList{},
	}
	raw, err := Serialize(inner)
	if err != nil {
		return Unsigned{}, err
	}
	return Unsigned{Tx: types.NewTx(inner), Bytes: raw}, nil
}

// Serialize 输出未签名 EIP-1559 交易的规范字节
func Serialize(tx *types.DynamicFeeTx) ([]byte, error) {
	payload, err := rlp.EncodeToBytes([]interface{}{
		tx.ChainID,
		tx.Nonce,
		tx.GasTipCap,
		tx.GasFeeCap,
		tx.Gas,
		tx.To,
		tx.Value,
		tx.Data,
		tx.AccessList,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rlp encode: %v", errno.ErrSerialization, err)
	}
	return append([]byte{types.DynamicFeeTxType}, payload...), nil
}

// unsignedFields Serialize 输出的 9 个字段
type unsignedFields struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address `rlp:"nil"`
	Value      *big.Int
	Data       []byte
	AccessList types.AccessList
}

// Decode 解析 Serialize 输出的规范字节, 中继方据此还原待签名交易
func Decode(raw []byte) (Unsigned, error) {
	if len(raw) < 2 || raw[0] != types.DynamicFeeTxType {
		return Unsigned{}, fmt.Errorf("%w: not an unsigned eip-1559 transaction", errno.ErrSerialization)
	}
	var f unsignedFields
	if err := rlp.DecodeBytes(raw[1:], &f); err != nil {
		return Unsigned{}, fmt.Errorf("%w: rlp decode: %v", errno.ErrSerialization, err)
	}
	inner := &types.DynamicFeeTx{
		ChainID:    f.ChainID,
		Nonce:      f.Nonce,
		GasTipCap:  f.GasTipCap,
		GasFeeCap:  f.GasFeeCap,
		Gas:        f.Gas,
		To:         f.To,
		Value:      f.Value,
		Data:       f.Data,
		AccessList: f.AccessList,
	}
	return Unsigned{Tx: types.NewTx(inner), Bytes: append([]byte(nil), raw...)}, nil
}

// Assemble 把 MPC 返回的可恢复签名附加到交易上，得到可以广播的已签名交易。
// 类型化交易的 v 就是 recovery id, 只能是 0 或 1。
func Assemble(tx *types.Transaction, r, s [32]byte, recoveryID uint8) (*types.Transaction, error) {
	if recoveryID > 1 {
		return nil, fmt.Errorf("%w: recovery id %d cannot be encoded in a typed transaction", errno.ErrInvalidSignature, recoveryID)
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = recoveryID

	signer := types.LatestSignerForChainID(tx.ChainId())
	signed, err := tx.WithSignature(signer, sig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errno.ErrInvalidSignature, err)
	}
	return signed, nil
}
