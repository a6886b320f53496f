package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"vault-bridge/internal/service"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/logger"
)

// 任务类型常量
const (
	TypeRelayDeposit    = "relay:deposit"
	TypeRelayWithdrawal = "relay:withdrawal"
)

// RelayPayload 中继任务参数, SerializedTx 为 Initiate 时返回的未签名交易
type RelayPayload struct {
	RequestID    string `json:"request_id"`
	SerializedTx []byte `json:"serialized_tx"`
}

func typeFor(op string) (string, error) {
	switch op {
	case evmtx.OperationDeposit.String():
		return TypeRelayDeposit, nil
	case evmtx.OperationWithdraw.String():
		return TypeRelayWithdrawal, nil
	default:
		return "", fmt.Errorf("%w: %q", errno.ErrUnknownOperation, op)
	}
}

func operationFor(taskType string) (string, error) {
	switch taskType {
	case TypeRelayDeposit:
		return evmtx.OperationDeposit.String(), nil
	case TypeRelayWithdrawal:
		return evmtx.OperationWithdraw.String(), nil
	default:
		return "", fmt.Errorf("%w: task type %q", errno.ErrUnknownOperation, taskType)
	}
}

// NewRelayTask 创建中继任务
// TaskID 取请求 ID, 同一请求重复通知只会入队一次
func NewRelayTask(op, requestID string, serializedTx []byte, timeout time.Duration) (*asynq.Task, error) {
	taskType, err := typeFor(op)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(RelayPayload{RequestID: requestID, SerializedTx: serializedTx})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, payload,
		asynq.TaskID(taskType+":"+requestID),
		asynq.Queue("critical"),
		asynq.MaxRetry(3),
		asynq.Timeout(timeout),
	), nil
}

// Processor 执行一次中继, *service.Relayer 满足该接口
type Processor interface {
	Process(ctx context.Context, job service.RelayJob) (*service.RelayResult, error)
}

// RelayHandler 处理中继任务
type RelayHandler struct {
	relayer Processor
}

func NewRelayHandler(relayer Processor) *RelayHandler {
	return &RelayHandler{relayer: relayer}
}

// permanent 重试也不会成功的错误
func permanent(err error) bool {
	switch errno.KindOf(err) {
	case errno.KindValidation, errno.KindMismatch, errno.KindSignature:
		return true
	}
	return false
}

func (h *RelayHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	op, err := operationFor(t.Type())
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	var p RelayPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// JSON 解析失败, 重试也没用, 任务进入 archived 队列
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	log := logger.With(zap.String("request_id", p.RequestID), zap.String("operation", op))
	log.Info("relay task started")

	res, err := h.relayer.Process(ctx, service.RelayJob{RequestID: p.RequestID, Operation: op, SerializedTx: p.SerializedTx})
	if err != nil {
		log.Error("relay task failed", zap.Error(err))
		if permanent(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	log.Info("relay task finished",
		zap.String("tx_hash", res.TxHash),
		zap.Bool("success", res.Success),
		zap.Bool("already_processed", res.AlreadyProcessed),
	)
	return nil
}

// IsDuplicate 同一请求的任务已在队列中
func IsDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}
