package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingDeposit 在途充值请求
// 签名响应到达并通过校验后删除
type PendingDeposit struct {
	RequestID string          `gorm:"primaryKey;type:char(66)" json:"request_id"`       // 0x + 64 hex
	Requester string          `gorm:"type:varchar(64);not null;index" json:"requester"` // base58 用户公钥
	Asset     string          `gorm:"type:char(42);not null" json:"asset"`              // ERC20 合约地址
	Amount    decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"amount"`        // u128
	Path      string          `gorm:"type:varchar(256);not null" json:"path"`           // 派生路径
	CreatedAt time.Time       `gorm:"not null;index" json:"created_at"`
}

// PendingWithdrawal 在途提现请求, 创建前已乐观扣款
type PendingWithdrawal struct {
	RequestID string          `gorm:"primaryKey;type:char(66)" json:"request_id"`
	Requester string          `gorm:"type:varchar(64);not null;index" json:"requester"`
	Asset     string          `gorm:"type:char(42);not null" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:numeric(39,0);not null" json:"amount"`
	Recipient string          `gorm:"type:char(42);not null" json:"recipient"`
	Path      string          `gorm:"type:varchar(256);not null" json:"path"`
	CreatedAt time.Time       `gorm:"not null;index" json:"created_at"`
}

// ClosedRequest 已消费的请求 ID, 防止同一 ID 再次登记
type ClosedRequest struct {
	RequestID string    `gorm:"primaryKey;type:char(66)" json:"request_id"`
	Kind      string    `gorm:"type:varchar(16);not null" json:"kind"` // deposit / withdraw
	ClosedAt  time.Time `gorm:"not null" json:"closed_at"`
}

// UserBalance 用户资产余额
// 核心设计: Version 字段记录每次变更, 行锁 + 版本号双重保护
type UserBalance struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner     string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_owner_asset" json:"owner"`
	Asset     string          `gorm:"type:char(42);not null;uniqueIndex:idx_owner_asset" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:numeric(39,0);not null;default:0" json:"amount"`
	Version   uint64          `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (PendingDeposit) TableName() string {
	return "pending_deposits"
}

func (PendingWithdrawal) TableName() string {
	return "pending_withdrawals"
}

func (ClosedRequest) TableName() string {
	return "closed_requests"
}

func (UserBalance) TableName() string {
	return "user_balances"
}

// Outbox 消息状态
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxMessage 本地消息表 (Transactional Outbox)
type OutboxMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic     string    `gorm:"type:varchar(255);not null" json:"topic"`
	Key       string    `gorm:"type:varchar(255);not null;default:''" json:"key"` // 分区键 (请求 ID)
	Payload   []byte    `gorm:"type:bytea;not null" json:"payload"`
	Status    string    `gorm:"type:varchar(50);not null;default:'PENDING';index" json:"status"` // PENDING, SENT, FAILED
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_messages"
}
