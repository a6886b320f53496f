package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"vault-bridge/internal/handler/response"
	"vault-bridge/pkg/logger"
)

// Version 构建时通过 -ldflags "-X vault-bridge/internal/handler.Version=..." 覆盖
var Version = "dev"

var startedAt = time.Now()

// HealthCheck godoc
// @Summary Check system health
// @Description Liveness probe with build version and uptime
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": logger.ServiceName,
		"version": Version,
		"uptime":  time.Since(startedAt).Round(time.Second).String(),
	})
}
