package requestid

import (
	"fmt"

	"vault-bridge/pkg/errno"
)

// Limits 签名参数字符串字段的长度上限 (字节)
type Limits struct {
	MaxPathLen   int
	MaxAlgoLen   int
	MaxDestLen   int
	MaxParamsLen int
}

// DefaultLimits path 256 / algo 64 / dest 256 / params 1024
var DefaultLimits = Limits{MaxPathLen: 256, MaxAlgoLen: 64, MaxDestLen: 256, MaxParamsLen: 1024}

// SigningParams 提交给签名服务的签名参数, 提交后不可修改
type SigningParams struct {
	KeyVersion uint32 `json:"key_version"`
	Path       string `json:"path"`
	Algo       string `json:"algo"`
	Dest       string `json:"dest"`
	Params     string `json:"params"`
}

// EthereumSigning 目标链为以太坊时的默认签名参数
func EthereumSigning(path string) SigningParams {
	return SigningParams{
		KeyVersion: DefaultKeyVersion,
		Path:       path,
		Algo:       AlgoECDSA,
		Dest:       DestEthereum,
		Params:     NoParams,
	}
}

// Validate path/algo/dest 不能为空, 四个字符串字段均不超过上限
func (p SigningParams) Validate(l Limits) error {
	fields := []struct {
		name     string
		value    string
		max      int
		required bool
	}{
		{"path", p.Path, l.MaxPathLen, true},
		{"algo", p.Algo, l.MaxAlgoLen, true},
		{"dest", p.Dest, l.MaxDestLen, true},
		{"params", p.Params, l.MaxParamsLen, false},
	}
	for _, f := range fields {
		if f.required && f.value == "" {
			return fmt.Errorf("%w: %s", errno.ErrEmptyField, f.name)
		}
		if len(f.value) > f.max {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", errno.ErrFieldTooLong, f.name, len(f.value), f.max)
		}
	}
	return nil
}

// Request 绑定发送方与交易字节得到完整的请求 ID 输入
func (p SigningParams) Request(sender string, tx []byte, slip44 uint32) Request {
	return Request{
		Sender:     sender,
		Tx:         tx,
		SLIP44:     slip44,
		KeyVersion: p.KeyVersion,
		Path:       p.Path,
		Algo:       p.Algo,
		Dest:       p.Dest,
		Params:     p.Params,
	}
}
