package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vault-bridge/internal/event"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/monitor"
	"vault-bridge/pkg/requestid"
	"vault-bridge/pkg/sigverify"
)

// Broadcaster 目标链节点, *ethclient.Client 满足该接口
type Broadcaster interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// ResponseWaiter 等待签名服务响应
type ResponseWaiter interface {
	WaitSignature(ctx context.Context, id requestid.ID, timeout time.Duration) (sigverify.Signature, error)
	WaitRead(ctx context.Context, id requestid.ID, timeout time.Duration) ([]byte, sigverify.Signature, error)
}

// ResponseSubmitter 把执行结果提交给协议
type ResponseSubmitter interface {
	ClaimDeposit(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.DepositClaimed, error)
	CompleteWithdraw(ctx context.Context, id requestid.ID, payload []byte, sig sigverify.Signature) (*event.WithdrawalCompleted, error)
}

// RelayJob 一次中继任务
type RelayJob struct {
	RequestID    string `json:"request_id"`
	Operation    string `json:"operation"` // deposit / withdraw
	SerializedTx []byte `json:"serialized_tx"`
}

// RelayResult 中继结果
type RelayResult struct {
	RequestID        string `json:"request_id"`
	TxHash           string `json:"tx_hash"`
	Success          bool   `json:"success"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// RelayerTimeouts 各阶段超时
type RelayerTimeouts struct {
	Signature    time.Duration
	Receipt      time.Duration
	ReadResponse time.Duration
	PollInterval time.Duration
}

func RelayerTimeoutsFromConfig(c config.RelayerConfig) RelayerTimeouts {
	return RelayerTimeouts{
		Signature:    c.SignatureTimeout,
		Receipt:      c.ReceiptTimeout,
		ReadResponse: c.ReadResponseTimeout,
		PollInterval: 2 * time.Second,
	}
}

// Relayer 串联 签名 -> 广播 -> 回执 -> 读取结果 -> 认领/完成
type Relayer struct {
	bridge   ResponseSubmitter
	waiter   ResponseWaiter
	chain    Broadcaster
	timeouts RelayerTimeouts
}

func NewRelayer(bridge ResponseSubmitter, waiter ResponseWaiter, chain Broadcaster, timeouts RelayerTimeouts) *Relayer {
	if timeouts.PollInterval <= 0 {
		timeouts.PollInterval = 2 * time.Second
	}
	return &Relayer{bridge: bridge, waiter: waiter, chain: chain, timeouts: timeouts}
}

// Process 执行一次中继任务
func (r *Relayer) Process(ctx context.Context, job RelayJob) (*RelayResult, error) {
	id, err := requestid.ParseID(job.RequestID)
	if err != nil {
		return nil, errors.Wrap(errno.ErrInvalidRequestID, err.Error())
	}
	if job.Operation != evmtx.OperationDeposit.String() && job.Operation != evmtx.OperationWithdraw.String() {
		return nil, errors.Wrapf(errno.ErrUnknownOperation, "operation %q", job.Operation)
	}
	unsigned, err := evmtx.Decode(job.SerializedTx)
	if err != nil {
		return nil, err
	}
	log := logger.With(zap.String("request_id", id.Hex()), zap.String("operation", job.Operation))

	// 1. 等待交易签名
	start := time.Now()
	sig, err := r.waiter.WaitSignature(ctx, id, r.timeouts.Signature)
	if err != nil {
		return nil, errors.Wrap(err, "wait signature")
	}
	monitor.ObserveRelayerStep("signature", start)

	// 2. 组装并广播
	signed, err := evmtx.Assemble(unsigned.Tx, sig.BigRX, sig.S, sig.RecoveryID)
	if err != nil {
		return nil, errors.Wrap(err, "assemble signed transaction")
	}
	start = time.Now()
	if err := r.broadcast(ctx, signed); err != nil {
		return nil, err
	}
	log.Info("transaction broadcast", zap.String("tx_hash", signed.Hash().Hex()))

	// 3. 等待回执
	receipt, err := r.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	monitor.ObserveRelayerStep("receipt", start)
	log.Info("transaction mined",
		zap.String("tx_hash", signed.Hash().Hex()),
		zap.Uint64("status", receipt.Status),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
	)

	// 4. 等待执行结果
	start = time.Now()
	output, outSig, err := r.waiter.WaitRead(ctx, id, r.timeouts.ReadResponse)
	if err != nil {
		return nil, errors.Wrap(err, "wait read response")
	}
	monitor.ObserveRelayerStep("read_response", start)

	// 5. 提交给协议
	res := &RelayResult{RequestID: id.Hex(), TxHash: signed.Hash().Hex()}
	start = time.Now()
	if job.Operation == evmtx.OperationDeposit.String() {
		_, err = r.bridge.ClaimDeposit(ctx, id, output, outSig)
		res.Success = err == nil
		if stderrors.Is(err, errno.ErrTransferFailed) {
			log.Warn("deposit transfer failed on destination chain, nothing credited")
			err = nil
		}
	} else {
		var done *event.WithdrawalCompleted
		done, err = r.bridge.CompleteWithdraw(ctx, id, output, outSig)
		if err == nil {
			res.Success = done.Success
		}
	}
	monitor.ObserveRelayerStep("submit", start)

	// 条目已不存在说明其他中继者已经处理过
	if stderrors.Is(err, errno.ErrRequestNotFound) {
		log.Info("request already processed")
		res.AlreadyProcessed = true
		return res, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "submit response")
	}
	return res, nil
}

func (r *Relayer) ProcessDeposit(ctx context.Context, requestID string, serializedTx []byte) (*RelayResult, error) {
	return r.Process(ctx, RelayJob{RequestID: requestID, Operation: evmtx.OperationDeposit.String(), SerializedTx: serializedTx})
}

func (r *Relayer) ProcessWithdrawal(ctx context.Context, requestID string, serializedTx []byte) (*RelayResult, error) {
	return r.Process(ctx, RelayJob{RequestID: requestID, Operation: evmtx.OperationWithdraw.String(), SerializedTx: serializedTx})
}

// errAlreadyKnown 节点对重复交易的拒绝信息 (txpool.ErrAlreadyKnown 经 RPC 后只剩文本)
const errAlreadyKnown = "already known"

// broadcast 任务重试时同一笔签名交易可能已在交易池或已上链, 两种情况都继续等回执
func (r *Relayer) broadcast(ctx context.Context, signed *types.Transaction) error {
	err := r.chain.SendTransaction(ctx, signed)
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), errAlreadyKnown) {
		logger.Info("transaction already in pool", zap.String("tx_hash", signed.Hash().Hex()))
		return nil
	}
	if _, rerr := r.chain.TransactionReceipt(ctx, signed.Hash()); rerr == nil {
		logger.Info("transaction already mined", zap.String("tx_hash", signed.Hash().Hex()))
		return nil
	}
	return errors.Wrapf(err, "broadcast %s", signed.Hash().Hex())
}

func (r *Relayer) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeouts.Receipt)
	defer cancel()

	ticker := time.NewTicker(r.timeouts.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := r.chain.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !stderrors.Is(err, ethereum.NotFound) {
			return nil, errors.Wrapf(err, "receipt %s", hash.Hex())
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "receipt %s", hash.Hex())
		case <-ticker.C:
		}
	}
}
