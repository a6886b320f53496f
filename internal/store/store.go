// Package store 提供跨登记表与账本的原子工作单元。
//
// 协议的每个操作都在一次 Atomic 调用中完成: fn 返回 nil 时全部变更生效,
// 返回 error 时全部变更撤销, 期间 Emit 的事件仅在提交后对外可见。
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/requestid"

	"gorm.io/gorm"
)

const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
)

// Tx 一次工作单元内可用的操作
type Tx interface {
	InsertDeposit(d *model.PendingDeposit) error
	GetDeposit(id requestid.ID) (*model.PendingDeposit, error)
	TakeDeposit(id requestid.ID) (*model.PendingDeposit, error)

	InsertWithdrawal(w *model.PendingWithdrawal) error
	GetWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error)
	TakeWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error)

	Balance(k ledger.Key) (*uint256.Int, error)
	Credit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error)
	Debit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error)

	// Emit 登记一条随提交发布的事件, payload 以 JSON 编码
	Emit(topic, key string, payload interface{}) error

	ExpiredDeposits(cutoff time.Time, limit int) ([]requestid.ID, error)
	ExpiredWithdrawals(cutoff time.Time, limit int) ([]requestid.ID, error)
}

// Store 原子工作单元的提供者
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// New 按配置创建 Store; postgres 模式下 db 不能为空
func New(cfg config.StoreConfig, db *gorm.DB, producer mq.Producer) (Store, error) {
	switch cfg.Kind {
	case KindMemory, "":
		return NewMemoryStore(producer), nil
	case KindPostgres:
		if db == nil {
			return nil, fmt.Errorf("store: postgres selected but no database connection")
		}
		return NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("store: unknown kind %q", cfg.Kind)
	}
}
