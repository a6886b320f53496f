package worker

import (
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"vault-bridge/internal/worker/tasks"
	"vault-bridge/pkg/config"
	"vault-bridge/pkg/logger"
)

// Server 封装 Asynq Server (Worker)
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewServer concurrency 即同时进行的中继任务数
func NewServer(cfg config.RedisConfig, concurrency int, relay *tasks.RelayHandler) *Server {
	srv := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger: logger.NewAsynqLogger(),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRelayDeposit, relay.ProcessTask)
	mux.HandleFunc(tasks.TypeRelayWithdrawal, relay.ProcessTask)

	return &Server{server: srv, mux: mux}
}

// Start 非阻塞启动
func (s *Server) Start() {
	go func() {
		logger.Info("worker server starting")
		if err := s.server.Run(s.mux); err != nil {
			logger.Error("worker server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Stop() {
	s.server.Stop()
	s.server.Shutdown()
}
