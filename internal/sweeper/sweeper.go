package sweeper

import (
	"context"
	"time"

	"github.com/warestock/order-service/internal/account"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

// Sweeper invokes the account verification sweep on a fixed interval.
type Sweeper struct {
	uc       account.UseCase
	interval time.Duration
	logger   logger.ZapLogger
}

func New(uc account.UseCase, interval time.Duration, log logger.ZapLogger) *Sweeper {
	return &Sweeper{
		uc:       uc,
		interval: interval,
		logger:   log,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting verification sweeper", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping verification sweeper")
			return
		case <-ticker.C:
			if err := s.uc.Sweep(ctx, time.Now()); err != nil {
				s.logger.Error("verification sweep failed", zap.Error(err))
			}
		}
	}
}
