package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault-bridge/internal/event"
	"vault-bridge/internal/service/mq"
	"vault-bridge/pkg/borsh"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/requestid"
)

type fakeChain struct {
	mu      sync.Mutex
	sent    []*types.Transaction
	misses  int
	sendErr error
}

func (c *fakeChain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	for _, prev := range c.sent {
		if prev.Hash() == tx.Hash() {
			return errors.New("already known")
		}
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *fakeChain) set(misses int, sendErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses = misses
	c.sendErr = sendErr
}

func (c *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.misses > 0 {
		c.misses--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(42)}, nil
}

type relayerFixture struct {
	*bridgeFixture
	chain   *fakeChain
	hub     *ResponseHub
	signed  *mq.MemoryBroker
	relayer *Relayer
}

func newRelayerFixture(t *testing.T) *relayerFixture {
	f := &relayerFixture{
		bridgeFixture: newBridgeFixture(t),
		chain:         &fakeChain{misses: 2},
		hub:           NewResponseHub(nil, testSigTopic, testReadTopic, time.Minute),
		signed:        mq.NewMemoryBroker(),
	}
	f.relayer = NewRelayer(f.svc, f.hub, f.chain, RelayerTimeouts{
		Signature:    time.Second,
		Receipt:      time.Second,
		ReadResponse: time.Second,
		PollInterval: time.Millisecond,
	})
	return f
}

// respond 让开发签名者处理最新的签名请求, 并把响应交给 hub
func (f *relayerFixture) respond(ds *DevSigner) {
	f.t.Helper()
	msg := lastMessage(f.t, f.broker, testSignTopic)
	require.NoError(f.t, ds.HandleSignRespond(f.ctx, msg))
	require.NoError(f.t, f.hub.HandleSignature(lastMessage(f.t, f.signed, testSigTopic)))
	require.NoError(f.t, f.hub.HandleRead(lastMessage(f.t, f.signed, testReadTopic)))
}

func mustID(t *testing.T, s string) requestid.ID {
	t.Helper()
	id, err := requestid.ParseID(s)
	require.NoError(t, err)
	return id
}

func TestRelayerDeposit(t *testing.T) {
	f := newRelayerFixture(t)
	in := f.depositInput(100)
	req, err := f.svc.InitiateDeposit(f.ctx, in)
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed))

	res, err := f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyProcessed)
	require.Len(t, f.chain.sent, 1)
	assert.Equal(t, f.chain.sent[0].Hash().Hex(), res.TxHash)
	assert.Equal(t, uint64(100), f.balance())
}

func TestRelayerDepositTransferFailed(t *testing.T) {
	f := newRelayerFixture(t)
	req, err := f.svc.InitiateDeposit(f.ctx, f.depositInput(100))
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed).WithOutcome(func(*event.SignRespondRequested) bool { return false }))

	res, err := f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, uint64(0), f.balance())
}

func TestRelayerWithdrawRefund(t *testing.T) {
	f := newRelayerFixture(t)
	f.deposit(80)
	w := f.withdrawInput(big.NewInt(80))
	req, err := f.svc.InitiateWithdraw(f.ctx, w)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), f.balance())
	f.respond(f.devSigner(f.signed).WithOutcome(func(*event.SignRespondRequested) bool { return false }))

	res, err := f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, uint64(80), f.balance())
}

func TestRelayerAlreadyProcessed(t *testing.T) {
	f := newRelayerFixture(t)
	in := f.depositInput(5)
	req, err := f.svc.InitiateDeposit(f.ctx, in)
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed))

	// 其他中继者先完成了认领
	payload := borsh.EncodeBool(true)
	_, err = f.svc.ClaimDeposit(f.ctx, in.RequestID, payload, f.sign(in.RequestID, payload))
	require.NoError(t, err)

	res, err := f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, uint64(5), f.balance())
}

func TestRelayerBroadcastError(t *testing.T) {
	f := newRelayerFixture(t)
	f.chain.sendErr = errors.New("nonce too low")
	req, err := f.svc.InitiateDeposit(f.ctx, f.depositInput(5))
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed))

	_, err = f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")

	pending, err := f.svc.PendingDeposit(f.ctx, mustID(t, req.RequestID))
	require.NoError(t, err)
	assert.Equal(t, "5", pending.Amount.String())
}

func TestRelayerRejectsBadJobs(t *testing.T) {
	f := newRelayerFixture(t)
	_, err := f.relayer.Process(f.ctx, RelayJob{RequestID: "0x12", Operation: "deposit"})
	assert.ErrorIs(t, err, errno.ErrInvalidRequestID)

	id := hubID(9).Hex()
	_, err = f.relayer.Process(f.ctx, RelayJob{RequestID: id, Operation: "swap"})
	assert.ErrorIs(t, err, errno.ErrUnknownOperation)

	_, err = f.relayer.Process(f.ctx, RelayJob{RequestID: id, Operation: "deposit", SerializedTx: []byte{0x01}})
	assert.ErrorIs(t, err, errno.ErrSerialization)
}

func TestRelayerSignatureTimeout(t *testing.T) {
	f := newRelayerFixture(t)
	f.relayer.timeouts.Signature = 10 * time.Millisecond
	req, err := f.svc.InitiateDeposit(f.ctx, f.depositInput(5))
	require.NoError(t, err)

	_, err = f.relayer.Process(f.ctx, RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx})
	assert.ErrorIs(t, err, ErrResponseTimeout)
	assert.Empty(t, f.chain.sent)
}

func TestRelayerRetryAfterBroadcastFailure(t *testing.T) {
	f := newRelayerFixture(t)
	req, err := f.svc.InitiateDeposit(f.ctx, f.depositInput(70))
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed))
	job := RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx}

	f.chain.set(2, errors.New("connection refused"))
	_, err = f.relayer.Process(f.ctx, job)
	require.Error(t, err)
	assert.Equal(t, uint64(0), f.balance())

	// asynq 重试: 签名与执行结果仍在 hub 中
	f.chain.set(1, nil)
	res, err := f.relayer.Process(f.ctx, job)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, f.chain.sent, 1)
	assert.Equal(t, uint64(70), f.balance())
}

func TestRelayerRetryAfterReceiptTimeout(t *testing.T) {
	f := newRelayerFixture(t)
	req, err := f.svc.InitiateDeposit(f.ctx, f.depositInput(25))
	require.NoError(t, err)
	f.respond(f.devSigner(f.signed))
	job := RelayJob{RequestID: req.RequestID, Operation: req.Operation, SerializedTx: req.SerializedTx}

	f.chain.set(1<<30, nil)
	f.relayer.timeouts.Receipt = 20 * time.Millisecond
	_, err = f.relayer.Process(f.ctx, job)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, f.chain.sent, 1)

	// 再次广播同一笔交易被节点拒绝为 already known, 继续等待回执即可
	f.chain.set(0, nil)
	f.relayer.timeouts.Receipt = time.Second
	res, err := f.relayer.Process(f.ctx, job)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, f.chain.sent[0].Hash().Hex(), res.TxHash)
	assert.Len(t, f.chain.sent, 1)
	assert.Equal(t, uint64(25), f.balance())
}
