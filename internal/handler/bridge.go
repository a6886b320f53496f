package handler

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"vault-bridge/internal/handler/request"
	"vault-bridge/internal/handler/response"
	"vault-bridge/internal/service"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/requestid"
)

// BridgeHandler 协议操作的 REST 入口
type BridgeHandler struct {
	bridge *service.BridgeService
	vault  *service.VaultService
}

func NewBridgeHandler(bridge *service.BridgeService, vault *service.VaultService) *BridgeHandler {
	return &BridgeHandler{bridge: bridge, vault: vault}
}

func pathID(c *gin.Context) (requestid.ID, bool) {
	id, err := requestid.ParseID(c.Param("request_id"))
	if err != nil {
		response.Error(c, errno.Errno{Code: errno.ErrBind.Code, Message: err.Error()})
		return id, false
	}
	return id, true
}

// InitiateDeposit godoc
// @Summary Register a deposit and request a signature
// @Tags bridge
// @Accept json
// @Produce json
// @Param body body request.InitiateDepositRequest true "deposit"
// @Success 200 {object} response.Response{data=event.SignRespondRequested}
// @Router /deposits [post]
func (h *BridgeHandler) InitiateDeposit(c *gin.Context) {
	var req request.InitiateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	id, requester, asset, amount := req.Parse()
	ev, err := h.bridge.InitiateDeposit(c.Request.Context(), service.InitiateDepositInput{
		RequestID: id,
		Requester: requester,
		Asset:     asset,
		Amount:    amount,
		Tx:        req.Tx.ToParams(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ev)
}

// ClaimDeposit godoc
// @Summary Credit a deposit with a signed execution result
// @Tags bridge
// @Accept json
// @Produce json
// @Param request_id path string true "request id (0x hex)"
// @Param body body request.SignedResponse true "signer response"
// @Success 200 {object} response.Response{data=event.DepositClaimed}
// @Router /deposits/{request_id}/claim [post]
func (h *BridgeHandler) ClaimDeposit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.SignedResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	output, sig, err := req.Decode()
	if err != nil {
		response.Error(c, err)
		return
	}
	ev, err := h.bridge.ClaimDeposit(c.Request.Context(), id, output, sig)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ev)
}

// GetDeposit godoc
// @Summary Pending deposit by request id
// @Tags bridge
// @Produce json
// @Param request_id path string true "request id (0x hex)"
// @Success 200 {object} response.Response{data=model.PendingDeposit}
// @Router /deposits/{request_id} [get]
func (h *BridgeHandler) GetDeposit(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.bridge.PendingDeposit(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, d)
}

// InitiateWithdraw godoc
// @Summary Debit a balance and request a withdrawal signature
// @Tags bridge
// @Accept json
// @Produce json
// @Param body body request.InitiateWithdrawRequest true "withdrawal"
// @Success 200 {object} response.Response{data=event.SignRespondRequested}
// @Router /withdrawals [post]
func (h *BridgeHandler) InitiateWithdraw(c *gin.Context) {
	var req request.InitiateWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	authorization, err := req.Authorization()
	if err != nil {
		response.Error(c, err)
		return
	}
	id, requester, asset, amount := req.Parse()
	ev, err := h.bridge.InitiateWithdraw(c.Request.Context(), service.InitiateWithdrawInput{
		RequestID:     id,
		Requester:     requester,
		Asset:         asset,
		Amount:        amount,
		Recipient:     common.HexToAddress(req.Recipient),
		Tx:            req.Tx.ToParams(),
		Authorization: authorization,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ev)
}

// CompleteWithdraw godoc
// @Summary Settle a withdrawal, refunding on failure
// @Tags bridge
// @Accept json
// @Produce json
// @Param request_id path string true "request id (0x hex)"
// @Param body body request.SignedResponse true "signer response"
// @Success 200 {object} response.Response{data=event.WithdrawalCompleted}
// @Router /withdrawals/{request_id}/complete [post]
func (h *BridgeHandler) CompleteWithdraw(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.SignedResponse
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	output, sig, err := req.Decode()
	if err != nil {
		response.Error(c, err)
		return
	}
	ev, err := h.bridge.CompleteWithdraw(c.Request.Context(), id, output, sig)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ev)
}

// GetWithdrawal godoc
// @Summary Pending withdrawal by request id
// @Tags bridge
// @Produce json
// @Param request_id path string true "request id (0x hex)"
// @Success 200 {object} response.Response{data=model.PendingWithdrawal}
// @Router /withdrawals/{request_id} [get]
func (h *BridgeHandler) GetWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	w, err := h.bridge.PendingWithdrawal(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, w)
}

// GetBalance godoc
// @Summary Ledger balance of an owner for an asset
// @Tags bridge
// @Produce json
// @Param owner path string true "owner public key (base58)"
// @Param asset path string true "erc20 address"
// @Success 200 {object} response.Response
// @Router /balances/{owner}/{asset} [get]
func (h *BridgeHandler) GetBalance(c *gin.Context) {
	owner, err := authority.ParsePublicKey(c.Param("owner"))
	if err != nil {
		response.Error(c, errno.ErrInvalidRequester)
		return
	}
	if !common.IsHexAddress(c.Param("asset")) {
		response.Error(c, errno.ErrInvalidAddress)
		return
	}
	asset := common.HexToAddress(c.Param("asset"))
	balance, err := h.bridge.Balance(c.Request.Context(), owner, asset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"owner":  owner.String(),
		"asset":  asset.Hex(),
		"amount": balance.Dec(),
	})
}

// RequestVaultSignature godoc
// @Summary Request a signature for an IVault deposit/withdraw call
// @Tags vault
// @Accept json
// @Produce json
// @Param body body request.VaultSignatureRequest true "vault call"
// @Success 200 {object} response.Response{data=event.SignatureRequested}
// @Router /vault/signatures [post]
func (h *BridgeHandler) RequestVaultSignature(c *gin.Context) {
	var req request.VaultSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	op, authorityKey, vt := req.Parse()
	ev, err := h.vault.RequestVaultSignature(c.Request.Context(), op, service.VaultSignatureInput{
		Authority: authorityKey,
		Tx:        vt,
	}, req.Signing.ToParams())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ev)
}
