package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxMessage(t *testing.T) {
	msg, err := NewOutboxMessage("bridge.notifications", "0xab", map[string]string{"request_id": "0xab"})
	require.NoError(t, err)
	assert.Equal(t, OutboxPending, msg.Status)
	assert.Equal(t, "0xab", msg.Key)
	assert.JSONEq(t, `{"request_id":"0xab"}`, string(msg.Payload))

	_, err = NewOutboxMessage("t", "", func() {})
	assert.Error(t, err)
}

func TestFailureUpdates(t *testing.T) {
	msg := &OutboxMessage{Attempts: 0}
	assert.Equal(t, map[string]interface{}{"attempts": 1}, msg.FailureUpdates(3))

	msg.Attempts = 2
	assert.Equal(t, map[string]interface{}{"attempts": 3, "status": OutboxFailed}, msg.FailureUpdates(3))
}

func TestAllModelsHaveTables(t *testing.T) {
	names := map[string]bool{}
	for _, m := range AllModels() {
		tabler, ok := m.(interface{ TableName() string })
		require.True(t, ok)
		names[tabler.TableName()] = true
	}
	for _, want := range []string{"pending_deposits", "pending_withdrawals", "closed_requests", "user_balances", "outbox_messages"} {
		assert.True(t, names[want], want)
	}
}
