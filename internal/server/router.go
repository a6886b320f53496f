package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"vault-bridge/internal/handler"
	"vault-bridge/pkg/monitor"
	"vault-bridge/pkg/validator"
)

// Handlers 路由依赖; Relayer 为空时不注册中继接口
type Handlers struct {
	Bridge  *handler.BridgeHandler
	Address *handler.AddressHandler
	Relayer *handler.RelayerHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	monitor.Init()
	validator.Init()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	{
		deposits := api.Group("/deposits")
		deposits.POST("", h.Bridge.InitiateDeposit)
		deposits.GET("/:request_id", h.Bridge.GetDeposit)
		deposits.POST("/:request_id/claim", h.Bridge.ClaimDeposit)

		withdrawals := api.Group("/withdrawals")
		withdrawals.POST("", h.Bridge.InitiateWithdraw)
		withdrawals.GET("/:request_id", h.Bridge.GetWithdrawal)
		withdrawals.POST("/:request_id/complete", h.Bridge.CompleteWithdraw)

		api.GET("/balances/:owner/:asset", h.Bridge.GetBalance)
		api.POST("/vault/signatures", h.Bridge.RequestVaultSignature)

		if h.Address != nil {
			api.GET("/addresses/:requester", h.Address.DepositAddress)
			api.GET("/vault/address", h.Address.VaultAddress)
		}
		if h.Relayer != nil {
			api.POST("/relayer/notify-deposit", h.Relayer.NotifyDeposit)
			api.POST("/relayer/notify-withdrawal", h.Relayer.NotifyWithdrawal)
		}
	}

	return r
}
