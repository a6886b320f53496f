package evmtx

import (
	"fmt"
	"math/big"

	"vault-bridge/pkg/errno"
)

// MaxAmountBits 金额类字段 (value / fee / 转账数量) 的最大位宽
const MaxAmountBits = 128

// TxParams 目标链交易参数 (EIP-1559)
type TxParams struct {
	Value                *big.Int `json:"value"`
	GasLimit             uint64   `json:"gas_limit"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas"`
	Nonce                uint64   `json:"nonce"`
	ChainID              uint64   `json:"chain_id"`
}

// Validate 校验交易参数，minGasLimit 为协议要求的最低 gas
func (p TxParams) Validate(minGasLimit uint64) error {
	if p.ChainID == 0 {
		return errno.ErrInvalidChainID
	}
	if p.GasLimit < minGasLimit {
		return fmt.Errorf("%w: %d < %d", errno.ErrGasLimitTooLow, p.GasLimit, minGasLimit)
	}
	if p.MaxFeePerGas == nil || p.MaxFeePerGas.Sign() <= 0 {
		return fmt.Errorf("%w: max fee per gas must be positive", errno.ErrInvalidFee)
	}
	if p.MaxPriorityFeePerGas != nil && p.MaxPriorityFeePerGas.Cmp(p.MaxFeePerGas) > 0 {
		return fmt.Errorf("%w: priority fee exceeds max fee", errno.ErrInvalidFee)
	}
	fields := []struct {
		name  string
		value *big.Int
	}{
		{"value", p.Value},
		{"max_fee_per_gas", p.MaxFeePerGas},
		{"max_priority_fee_per_gas", p.MaxPriorityFeePerGas},
	}
	for _, f := range fields {
		if err := CheckAmount(f.name, f.value, true); err != nil {
			return err
		}
	}
	return nil
}

// CheckAmount 检查数值非负且不超过 128 位; allowZero=false 时要求为正
func CheckAmount(name string, v *big.Int, allowZero bool) error {
	if v == nil || v.Sign() == 0 {
		if allowZero {
			return nil
		}
		return fmt.Errorf("%w: %s", errno.ErrZeroAmount, name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative", errno.ErrZeroAmount, name)
	}
	if v.BitLen() > MaxAmountBits {
		return fmt.Errorf("%w: %s", errno.ErrAmountTooLarge, name)
	}
	return nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
