package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vault-bridge/internal/ledger"
	"vault-bridge/internal/model"
	"vault-bridge/pkg/errno"
)

// 设置 BRIDGE_TEST_POSTGRES_DSN 后运行, 例如
// host=localhost user=bridge_user password=bridge_password dbname=bridge_test port=5432 sslmode=disable
func newPostgresStore(t *testing.T) (*PostgresStore, *gorm.DB) {
	t.Helper()
	dsn := os.Getenv("BRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BRIDGE_TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	for _, m := range model.AllModels() {
		require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error)
	}
	return NewPostgresStore(db), db
}

func TestPostgresCommitWritesOutbox(t *testing.T) {
	s, db := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertDeposit(deposit(rid(1))); err != nil {
			return err
		}
		if _, err := tx.Credit(testKey, uint256.NewInt(7)); err != nil {
			return err
		}
		return tx.Emit("topic", "k", map[string]string{"hello": "world"})
	}))

	var msgs []model.OutboxMessage
	require.NoError(t, db.Find(&msgs).Error)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.OutboxPending, msgs[0].Status)
	assert.JSONEq(t, `{"hello":"world"}`, string(msgs[0].Payload))

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		bal, err := tx.Balance(testKey)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), bal.Uint64())
		_, err = tx.GetDeposit(rid(1))
		return err
	}))
}

func TestPostgresRollback(t *testing.T) {
	s, db := newPostgresStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertDeposit(deposit(rid(2))); err != nil {
			return err
		}
		if _, err := tx.Credit(testKey, uint256.NewInt(9)); err != nil {
			return err
		}
		if err := tx.Emit("topic", "k", "x"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&model.OutboxMessage{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&model.PendingDeposit{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostgresTakeClosesRequest(t *testing.T) {
	s, _ := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(3))) }))
	err := s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(3))) })
	assert.ErrorIs(t, err, errno.ErrRequestExists)

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.TakeDeposit(rid(3))
		return err
	}))
	err = s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.TakeDeposit(rid(3))
		return err
	})
	assert.ErrorIs(t, err, errno.ErrRequestNotFound)

	err = s.Atomic(ctx, func(tx Tx) error { return tx.InsertDeposit(deposit(rid(3))) })
	assert.ErrorIs(t, err, errno.ErrRequestClosed)
}

func TestPostgresDebit(t *testing.T) {
	s, _ := newPostgresStore(t)
	ctx := context.Background()
	other := ledger.Key{Owner: "nobody", Asset: testKey.Asset}

	err := s.Atomic(ctx, func(tx Tx) error {
		_, err := tx.Debit(other, uint256.NewInt(1))
		return err
	})
	assert.ErrorIs(t, err, errno.ErrInsufficientFunds)

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		if _, err := tx.Credit(testKey, uint256.NewInt(10)); err != nil {
			return err
		}
		bal, err := tx.Debit(testKey, uint256.NewInt(4))
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(6), bal.Uint64())
		return nil
	}))

	require.NoError(t, s.Atomic(ctx, func(tx Tx) error {
		if err := tx.InsertWithdrawal(&model.PendingWithdrawal{
			RequestID: rid(4).Hex(),
			Requester: "owner",
			Asset:     testKey.Asset,
			Amount:    deposit(rid(4)).Amount,
			Recipient: testKey.Asset,
			Path:      "root",
		}); err != nil {
			return err
		}
		ids, err := tx.ExpiredWithdrawals(time.Now().Add(time.Hour), 10)
		require.NoError(t, err)
		assert.Len(t, ids, 1)
		return nil
	}))
}
