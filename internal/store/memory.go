package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/internal/registry"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/requestid"
)

type pendingEvent struct {
	topic   string
	key     string
	payload []byte
}

// MemoryStore 进程内存储: 单写锁 + undo 日志实现原子性
type MemoryStore struct {
	mu          sync.Mutex
	deposits    *registry.Registry[model.PendingDeposit]
	withdrawals *registry.Registry[model.PendingWithdrawal]
	book        *ledger.Book
	producer    mq.Producer
}

// NewMemoryStore producer 为空时提交后的事件被丢弃
func NewMemoryStore(producer mq.Producer) *MemoryStore {
	return &MemoryStore{
		deposits:    registry.New[model.PendingDeposit](),
		withdrawals: registry.New[model.PendingWithdrawal](),
		book:        ledger.NewBook(),
		producer:    producer,
	}
}

// WithClock 替换登记表时钟 (测试用)
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.deposits.WithClock(now)
	s.withdrawals.WithClock(now)
	return s
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memoryTx{s: s}
	if err := s.run(tx, fn); err != nil {
		return err
	}

	// 提交后再发布, 发布失败不影响已提交的状态
	s.publish(ctx, tx.events)
	return nil
}

// run 持锁执行 fn; 返回错误或 panic 时按 undo 日志回滚, panic 回滚后继续抛出
func (s *MemoryStore) run(tx *memoryTx, fn func(tx Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()
	if err = fn(tx); err != nil {
		tx.rollback()
	}
	return err
}

func (s *MemoryStore) publish(ctx context.Context, events []pendingEvent) {
	if s.producer == nil {
		return
	}
	for _, e := range events {
		if err := s.producer.Publish(ctx, e.topic, e.key, e.payload); err != nil {
			logger.Error("publish committed event failed",
				zap.String("topic", e.topic),
				zap.String("key", e.key),
				zap.Error(err),
			)
		}
	}
}

type memoryTx struct {
	s      *MemoryStore
	undo   []func()
	events []pendingEvent
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.events = nil
}

func (t *memoryTx) InsertDeposit(d *model.PendingDeposit) error {
	id, err := requestid.ParseID(d.RequestID)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrInvalidRequestID, err)
	}
	e, err := t.s.deposits.Insert(id, *d)
	if err != nil {
		return err
	}
	d.CreatedAt = e.CreatedAt
	t.undo = append(t.undo, func() { t.s.deposits.Remove(id) })
	return nil
}

func (t *memoryTx) GetDeposit(id requestid.ID) (*model.PendingDeposit, error) {
	e, err := t.s.deposits.Get(id)
	if err != nil {
		return nil, err
	}
	d := e.Value
	d.CreatedAt = e.CreatedAt
	return &d, nil
}

func (t *memoryTx) TakeDeposit(id requestid.ID) (*model.PendingDeposit, error) {
	e, err := t.s.deposits.Take(id)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, func() { t.s.deposits.Restore(id, e) })
	d := e.Value
	d.CreatedAt = e.CreatedAt
	return &d, nil
}

func (t *memoryTx) InsertWithdrawal(w *model.PendingWithdrawal) error {
	id, err := requestid.ParseID(w.RequestID)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrInvalidRequestID, err)
	}
	e, err := t.s.withdrawals.Insert(id, *w)
	if err != nil {
		return err
	}
	w.CreatedAt = e.CreatedAt
	t.undo = append(t.undo, func() { t.s.withdrawals.Remove(id) })
	return nil
}

func (t *memoryTx) GetWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error) {
	e, err := t.s.withdrawals.Get(id)
	if err != nil {
		return nil, err
	}
	w := e.Value
	w.CreatedAt = e.CreatedAt
	return &w, nil
}

func (t *memoryTx) TakeWithdrawal(id requestid.ID) (*model.PendingWithdrawal, error) {
	e, err := t.s.withdrawals.Take(id)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, func() { t.s.withdrawals.Restore(id, e) })
	w := e.Value
	w.CreatedAt = e.CreatedAt
	return &w, nil
}

func (t *memoryTx) Balance(k ledger.Key) (*uint256.Int, error) {
	return t.s.book.Balance(k), nil
}

func (t *memoryTx) Credit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error) {
	prev := t.s.book.Balance(k)
	next, err := t.s.book.Credit(k, amount)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, func() { t.s.book.Set(k, prev) })
	return next, nil
}

func (t *memoryTx) Debit(k ledger.Key, amount *uint256.Int) (*uint256.Int, error) {
	prev := t.s.book.Balance(k)
	next, err := t.s.book.Debit(k, amount)
	if err != nil {
		return nil, err
	}
	t.undo = append(t.undo, func() { t.s.book.Set(k, prev) })
	return next, nil
}

func (t *memoryTx) Emit(topic, key string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", errno.ErrSerialization, err)
	}
	t.events = append(t.events, pendingEvent{topic: topic, key: key, payload: b})
	return nil
}

func (t *memoryTx) ExpiredDeposits(cutoff time.Time, limit int) ([]requestid.ID, error) {
	return t.s.deposits.OlderThan(cutoff, limit), nil
}

func (t *memoryTx) ExpiredWithdrawals(cutoff time.Time, limit int) ([]requestid.ID, error) {
	return t.s.withdrawals.OlderThan(cutoff, limit), nil
}
