package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"vault-bridge/internal/handler/request"
	"vault-bridge/internal/handler/response"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/evmtx"
	"vault-bridge/pkg/logger"
)

// RelayEnqueuer *worker.Client 满足该接口
type RelayEnqueuer interface {
	EnqueueRelay(ctx context.Context, op, requestID string, serializedTx []byte) (*asynq.TaskInfo, error)
}

type RelayerHandler struct {
	jobs RelayEnqueuer
}

func NewRelayerHandler(jobs RelayEnqueuer) *RelayerHandler {
	return &RelayerHandler{jobs: jobs}
}

func (h *RelayerHandler) notify(c *gin.Context, op evmtx.Operation) {
	var req request.RelayNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	tx, err := req.TxBytes()
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := evmtx.Decode(tx); err != nil {
		response.Error(c, err)
		return
	}

	info, err := h.jobs.EnqueueRelay(c.Request.Context(), op.String(), req.RequestID, tx)
	if err != nil {
		logger.Error("enqueue relay task failed", zap.String("request_id", req.RequestID), zap.Error(err))
		response.Error(c, errno.Errno{Code: errno.ErrQueue.Code, Message: err.Error()})
		return
	}
	data := gin.H{"request_id": req.RequestID, "operation": op.String(), "queued": info != nil}
	if info != nil {
		data["task_id"] = info.ID
	}
	response.Accepted(c, data)
}

// NotifyDeposit godoc
// @Summary Start relaying a deposit in the background
// @Tags relayer
// @Accept json
// @Produce json
// @Param body body request.RelayNotifyRequest true "initiated request"
// @Success 202 {object} response.Response
// @Router /relayer/notify-deposit [post]
func (h *RelayerHandler) NotifyDeposit(c *gin.Context) {
	h.notify(c, evmtx.OperationDeposit)
}

// NotifyWithdrawal godoc
// @Summary Start relaying a withdrawal in the background
// @Tags relayer
// @Accept json
// @Produce json
// @Param body body request.RelayNotifyRequest true "initiated request"
// @Success 202 {object} response.Response
// @Router /relayer/notify-withdrawal [post]
func (h *RelayerHandler) NotifyWithdrawal(c *gin.Context) {
	h.notify(c, evmtx.OperationWithdraw)
}
