package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"vault-bridge/pkg/logger"
)

type Config struct {
	HttpPort        string
	GrpcPort        string
	ShutdownTimeout time.Duration
}

// App HTTP API + gRPC 健康检查服务
type App struct {
	httpServer   *http.Server
	grpcServer   *grpc.Server
	grpcListener net.Listener
	health       *health.Server
	timeout      time.Duration
}

func New(cfg Config, httpHandler *gin.Engine) (*App, error) {
	lis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GrpcPort, err)
	}

	hs := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &App{
		httpServer:   &http.Server{Addr: ":" + cfg.HttpPort, Handler: httpHandler, ReadHeaderTimeout: 10 * time.Second},
		grpcServer:   grpcServer,
		grpcListener: lis,
		health:       hs,
		timeout:      timeout,
	}, nil
}

// GRPCAddr 实际监听地址 (端口为 0 时由系统分配)
func (a *App) GRPCAddr() string {
	return a.grpcListener.Addr().String()
}

// Run 启动服务并阻塞, 直到 ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context) error {
	errs := make(chan error, 2)

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Info("starting gRPC server", zap.String("addr", a.GRPCAddr()))
		if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errs <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	a.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errs:
	}
	logger.Info("shutting down server")
	a.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	a.grpcServer.GracefulStop()
	logger.Info("server exited")
	return runErr
}
