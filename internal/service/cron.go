package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vault-bridge/pkg/logger"
	"vault-bridge/pkg/utils/lock"
)

const sweepLockKey = "cron:reclaim_expired"

// Reclaimer 关闭过期请求
type Reclaimer interface {
	ReclaimExpired(ctx context.Context, now time.Time) (ReclaimReport, error)
}

// ExpiryService 定时清理过期请求; 多实例部署时用分布式锁保证同一时刻只有一个实例执行
type ExpiryService struct {
	cron    *cron.Cron
	locker  lock.DistributedLock
	bridge  Reclaimer
	spec    string
	lockTTL time.Duration
	clock   func() time.Time
}

func NewExpiryService(bridge Reclaimer, locker lock.DistributedLock, spec string) *ExpiryService {
	if locker == nil {
		locker = lock.NewLocalLock()
	}
	return &ExpiryService{
		cron:    cron.New(),
		locker:  locker,
		bridge:  bridge,
		spec:    spec,
		lockTTL: 30 * time.Second,
		clock:   time.Now,
	}
}

func (s *ExpiryService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid sweep spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	logger.Info("expiry service started", zap.String("spec", s.spec))
	return nil
}

func (s *ExpiryService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("expiry service stopped")
}

// Sweep 执行一次清理, 返回是否拿到了锁
func (s *ExpiryService) Sweep(ctx context.Context) bool {
	locked, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL)
	if err != nil {
		logger.Warn("sweep lock failed", zap.Error(err))
		return false
	}
	if !locked {
		logger.Debug("sweep skipped, another instance holds the lock")
		return false
	}
	defer func() {
		if err := s.locker.Release(ctx, sweepLockKey); err != nil {
			logger.Warn("sweep lock release failed", zap.Error(err))
		}
	}()

	report, err := s.bridge.ReclaimExpired(ctx, s.clock())
	if err != nil {
		logger.Error("reclaim expired requests failed",
			zap.Int("deposits", report.Deposits),
			zap.Int("withdrawals", report.Withdrawals),
			zap.Error(err),
		)
	}
	return true
}
