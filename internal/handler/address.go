package handler

import (
	"github.com/gin-gonic/gin"

	"vault-bridge/internal/handler/response"
	"vault-bridge/internal/service"
	"vault-bridge/pkg/authority"
	"vault-bridge/pkg/errno"
)

type AddressHandler struct {
	addresses service.AddressService
}

func NewAddressHandler(addresses service.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// DepositAddress godoc
// @Summary MPC-controlled deposit address of a user
// @Tags address
// @Produce json
// @Param requester path string true "user public key (base58)"
// @Success 200 {object} response.Response{data=service.AddressInfo}
// @Router /addresses/{requester} [get]
func (h *AddressHandler) DepositAddress(c *gin.Context) {
	user, err := authority.ParsePublicKey(c.Param("requester"))
	if err != nil {
		response.Error(c, errno.ErrInvalidRequester)
		return
	}
	info, err := h.addresses.DepositAddress(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

// VaultAddress godoc
// @Summary MPC-controlled global vault address
// @Tags address
// @Produce json
// @Success 200 {object} response.Response{data=service.AddressInfo}
// @Router /vault/address [get]
func (h *AddressHandler) VaultAddress(c *gin.Context) {
	info, err := h.addresses.VaultAddress(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}
