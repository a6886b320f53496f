package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/requestid"
)

var testKey = ledger.Key{Owner: "owner", Asset: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"}

func rid(b byte) requestid.ID {
	var id requestid.ID
	id[31] = b
	return id
}

func deposit(id requestid.ID) *model.PendingDeposit {
	return &model.PendingDeposit{
		RequestID: id.Hex(),
		Requester: "owner",
		Asset:     testKey.Asset,
		Amount:    decimal.NewFromInt(100),
		Path:      "owner",
	}
}

func TestAtomicCommitPublishesEvents(t *testing.T) {
	broker := mq.NewMemoryBroker()
	s := NewMemoryStore(broker)
	ctx := context.Background()

	err := s.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertDeposit(deposit(rid(1))); err != nil {
			return err
		}
		if _, err := tx.Credit(testKey, uint256.NewInt(5)); err != nil {
			return err
		}
		return tx.Emit("topic", "k", map[string]string{"hello": "world"})
	})
	require.NoError(t, err)

	msgs := broker.Messages("topic")
	require.Len(t, msgs, 1)
	assert.Equal(t, "k", msgs[0].Key)
	assert.JSONEq(t, `{"hello":"world"}`, string(msgs[0].Payload))

	_ = s.Atomic(ctx, func(tx Tx) error {
		bal, err := tx.Balance(testKey)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), bal.Uint64())
		d, err := tx.GetDeposit(rid(1))
		require.NoError(t, err)
		assert.False(t, d.CreatedAt.IsZero())
		return nil
	})
}

func TestAtomicRollback(t *testing.T) {
	broker := mq.NewMemoryBroker()
	s := NewMemoryStore(broker)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertDeposit(deposit(rid(1))); err != nil {
			return err
		}
		_, err := tx.Credit(testKey, uint256.NewInt(50))
		return err
	}))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.TakeDeposit(rid(1)); err != nil {
			return err
		}
		if _, err := tx.Debit(testKey, uint256.NewInt(20)); err != nil {
			return err
		}
		if _, err := tx.Credit(testKey, uint256.NewInt(1)); err != nil {
			return err
		}
		if err := tx.InsertWithdrawal(&model.PendingWithdrawal{RequestID: rid(2).Hex(), Amount: decimal.NewFromInt(1)}); err != nil {
			return err
		}
		if err := tx.Emit("topic", "", "x"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, broker.Messages("topic"), "rolled back events are never published")

	_ = s.Atomic(ctx, func(tx Tx) error {
		bal, _ := tx.Balance(testKey)
		assert.Equal(t, uint64(50), bal.Uint64())
		_, err := tx.GetDeposit(rid(1))
		assert.NoError(t, err, "taken deposit restored")
		_, err = tx.GetWithdrawal(rid(2))
		assert.ErrorIs(t, err, errno.ErrRequestNotFound)
		return nil
	})

	// 回滚后的 ID 仍可再次消费
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.TakeDeposit(rid(1))
		return err
	}))
}

func TestAtomicPanicRollsBack(t *testing.T) {
	broker := mq.NewMemoryBroker()
	s := NewMemoryStore(broker)
	ctx := context.Background()
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.Credit(testKey, uint256.NewInt(50))
		return err
	}))

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.Atomic(ctx, func(tx Tx) error {
			if _, err := tx.Debit(testKey, uint256.NewInt(20)); err != nil {
				return err
			}
			if err := tx.Emit("topic", "", "x"); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Empty(t, broker.Messages("topic"))

	// 锁已释放, 扣款已撤销
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Atomic(ctx, func(tx Tx) error {
			bal, err := tx.Balance(testKey)
			if assert.NoError(t, err) {
				assert.Equal(t, uint64(50), bal.Uint64())
			}
			return nil
		})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("store still locked after panic")
	}
}

func TestConcurrentDebitsSerialize(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.Credit(testKey, uint256.NewInt(100))
		return err
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Atomic(ctx, func(tx Tx) error {
				_, err := tx.Debit(testKey, uint256.NewInt(30))
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, errno.ErrInsufficientFunds)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	_ = s.Atomic(ctx, func(tx Tx) error {
		bal, err := tx.Balance(testKey)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), bal.Uint64())
		return nil
	})
}

func TestTakeIsOneShot(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(3))) }))
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.TakeDeposit(rid(3))
		return err
	}))

	err := s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.TakeDeposit(rid(3))
		return err
	})
	assert.ErrorIs(t, err, errno.ErrRequestNotFound)

	err = s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(3))) })
	assert.ErrorIs(t, err, errno.ErrRequestClosed)
}

func TestDuplicateInsert(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(4))) }))
	err := s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(4))) })
	assert.ErrorIs(t, err, errno.ErrRequestExists)

	err = s.Atomic(ctx, func(tx Tx) error {
		return tx.InsertDeposit(&model.PendingDeposit{RequestID: "0x12"})
	})
	assert.ErrorIs(t, err, errno.ErrInvalidRequestID)
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore(nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(5))) }))
	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(6))) }))

	_ = s.Atomic(ctx, func(tx Tx) error {
		ids, err := tx.ExpiredDeposits(now.Add(-time.Hour), 0)
		require.NoError(t, err)
		assert.Equal(t, []requestid.ID{rid(5)}, ids)

		ids, err = tx.ExpiredWithdrawals(now, 0)
		require.NoError(t, err)
		assert.Empty(t, ids)
		return nil
	})
}

func TestNew(t *testing.T) {
	s, err := New(config.StoreConfig{Kind: KindMemory}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = New(config.StoreConfig{Kind: KindPostgres}, nil, nil)
	assert.Error(t, err)

	_, err = New(config.StoreConfig{Kind: "etcd"}, nil, nil)
	assert.Error(t, err)
}
