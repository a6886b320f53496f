package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/requestid"
)

const (
	closedKindDeposit  = "deposit"
	closedKindWithdraw = "withdraw"
)

// PostgresStore 基于 gorm 事务的存储
// 余额行使用 SELECT ... FOR UPDATE 串行化, 事件写入同一事务中的 outbox 表
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postgresTx{db: tx})
	})
}

type postgresTx struct {
	db *gorm.DB
}

func dbErr(err error) error {
	return fmt.Errorf("%w: %v", errno.ErrDatabase, err)
}

// ensureOpen 已关闭的 ID 不可重新登记
func (t *postgresTx) ensureOpen(id string) error {
	var count int64
	if err := t.db.Model(&model.ClosedRequest{}).Where("request_id = ?", id).Count(&count).Error; err != nil {
		return dbErr(err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", errno.ErrRequestClosed, id)
	}
	return nil
}

func (t *postgresTx) close(id, kind string) error {
	row := model.ClosedRequest{RequestID: id, Kind: kind, ClosedAt: time.Now()}
	if err := t.db.Create(&row).Error; err != nil {
		return dbErr(err)
	}
	return nil
}

func (t *postgresTx) InsertDeposit(d *model.PendingDeposit) error {
	if err := t.ensureOpen(d.RequestID); err != nil {
		return err
	}
	res := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(d)
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errno.ErrRequestExists, d.RequestID)
	}
	return nil
}

func (t *postgresTx) GetDeposit(id requestid.ID) (*model.PendingDeposit, error) {
	var d model.PendingDeposit
	if err := t.db.First(&d, "request_id = ?", id.Hex()).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &d, nil
}

func (t *postgresTx) TakeDeposit(id requestid.ID) (*model.PendingDeposit, error) {
	var d model.PendingDeposit
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&d, "request_id = ?", id.Hex()).Error; err != nil {
		return nil, notFound(err, id)
	}
	if err := t.db.Delete(&d).Error; err != nil {
		return nil, dbErr(err)
	}
	if err := t.close(d.RequestID, closedKindDeposit); err != nil {
		return nil, err
	}
	return &d, nil
}

func (t *postgresTx) InsertWithdrawal(w *model.PendingWithdrawal) error {
	if err := t.ensureOpen(w.RequestID); err != nil {
		return err
	}
	res := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(w)
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", errno.ErrRequestExists, w.RequestID)
	}
	return nil
}

func (t *postgresTx) GetWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error) {
	var w model.PendingWithdrawal
	if err := t.db.First(&w, "request_id = ?", id.Hex()).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &w, nil
}

func (t *postgresTx) TakeWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error) {
	var w model.PendingWithdrawal
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, "request_id = ?", id.Hex()).Error; err != nil {
		return nil, notFound(err, id)
	}
	if err := t.db.Delete(&w).Error; err != nil {
		return nil, dbErr(err)
	}
	if err := t.close(w.RequestID, closedKindWithdraw); err != nil {
		return nil, err
	}
	return &w, nil
}

func notFound(err error, id requestid.ID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", errno.ErrRequestNotFound, id)
	}
	return dbErr(err)
}

func (t *postgresTx) Balance(k ledger.Key) (*uint256.Int, error) {
	var b model.UserBalance
	err := t.db.Where("owner = ? AND asset = ?", k.Owner, k.Asset).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return ledger.FromDecimal(b.Amount)
}

// lockBalance 悲观锁读取余额行; create=true 时不存在则先插入零余额行
func (t *postgresTx) lockBalance(k ledger.Key, create bool) (*model.UserBalance, error) {
	if create {
		zero := model.UserBalance{Owner: k.Owner, Asset: k.Asset, Amount: decimal.Zero}
		if err := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&zero).Error; err != nil {
			return nil, dbErr(err)
		}
	}

	var b model.UserBalance
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner = ? AND asset = ?", k.Owner, k.Asset).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return &b, nil
}

func (t *postgresTx) save(b *model.UserBalance, amount *uint256.Int) error {
	res := t.db.Model(&model.UserBalance{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"amount":  ledger.ToDecimal(amount),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return dbErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: balance %d modified concurrently", errno.ErrDatabase, b.ID)
	}
	return nil
}

func (t *postgresTx) Credit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error) {
	b, err := t.lockBalance(k, true)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: balance row for %s vanished", errno.ErrDatabase, k)
	}
	cur, err := ledger.FromDecimal(b.Amount)
	if err != nil {
		return nil, err
	}
	next, err := ledger.CheckedAdd(cur, amount)
	if err != nil {
		return nil, err
	}
	if err := t.save(b, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (t *postgresTx) Debit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error) {
	b, err := t.lockBalance(k, false)
	if err != nil {
		return nil, err
	}
	cur := new(uint256.Int)
	if b != nil {
		if cur, err = ledger.FromDecimal(b.Amount); err != nil {
			return nil, err
		}
	}
	if b == nil || cur.Lt(amount) {
		return nil, fmt.Errorf("%w: %s has %s, need %s", errno.ErrInsufficientFunds, k, cur.Dec(), amount.Dec())
	}
	next, err := ledger.CheckedSub(cur, amount)
	if err != nil {
		return nil, err
	}
	if err := t.save(b, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (t *postgresTx) Emit(topic, key string, payload interface{}) error {
	if err := model.AppendOutbox(t.db, topic, key, payload); err != nil {
		return dbErr(err)
	}
	return nil
}

func (t *postgresTx) ExpiredDeposits(cutoff time.Time, limit int) ([]requestid.ID, error) {
	return t.expired(&model.PendingDeposit{}, cutoff, limit)
}

func (t *postgresTx) ExpiredWithdrawals(cutoff time.Time, limit int) ([]requestid.ID, error) {
	return t.expired(&model.PendingWithdrawal{}, cutoff, limit)
}

func (t *postgresTx) expired(m interface{}, cutoff time.Time, limit int) ([]requestid.ID, error) {
	q := t.db.Model(m).Where("created_at < ?", cutoff).Order("created_at")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var raw []string
	if err := q.Pluck("request_id", &raw).Error; err != nil {
		return nil, dbErr(err)
	}
	ids := make([]requestid.ID, 0, len(raw))
	for _, s := range raw {
		id, err := requestid.ParseID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: stored request id %q", errno.ErrDatabase, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
