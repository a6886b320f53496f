package service

import (
	"context"

	"vault-bridge/pkg/authority"
)

// AddressService 查询 MPC 控制的以太坊地址
type AddressService interface {
	// DepositAddress 用户专属的充值地址
	DepositAddress(ctx context.Context, user authority.PublicKey) (*AddressInfo, error)
	// VaultAddress 全局金库地址, 提现交易的发送方
	VaultAddress(ctx context.Context) (*AddressInfo, error)
}

// AddressInfo 派生结果及其派生输入
type AddressInfo struct {
	Address   string `json:"address"`
	Requester string `json:"requester"`
	Path      string `json:"path"`
}
