// Package ledger 用户资产余额账本, 所有加减均为 128 位上限的检查运算。
package ledger

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"vault-bridge/pkg/errno"
)

// MaxAmount 2^128 - 1
var MaxAmount = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// CheckedAdd a + b, 超过 128 位返回 ErrOverflow
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || sum.Gt(MaxAmount) {
		return nil, fmt.Errorf("%w: %s + %s", errno.ErrOverflow, a.Dec(), b.Dec())
	}
	return sum, nil
}

// CheckedSub a - b, a < b 时返回 ErrUnderflow
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, fmt.Errorf("%w: %s - %s", errno.ErrUnderflow, a.Dec(), b.Dec())
	}
	return new(uint256.Int).Sub(a, b), nil
}

// FromBig 转换并校验 0 <= v <= MaxAmount
func FromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 128 {
		return nil, errno.ErrAmountTooLarge
	}
	out, _ := uint256.FromBig(v)
	return out, nil
}

// FromDecimal 数据库 numeric(39,0) 列 -> uint256
func FromDecimal(d decimal.Decimal) (*uint256.Int, error) {
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: fractional amount %s", errno.ErrSerialization, d.String())
	}
	return FromBig(d.BigInt())
}

// ToDecimal uint256 -> 数据库 numeric(39,0) 列
func ToDecimal(v *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v.ToBig(), 0)
}

// ParseAmount 解析十进制字符串金额
func ParseAmount(s string) (*uint256.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errno.ErrSerialization, s)
	}
	return FromBig(v)
}
