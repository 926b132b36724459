package service

import (
	"context"
	"time"

	"github.com/clinicstock/backend/pkg/actor"
	"github.com/clinicstock/backend/pkg/logger"
)

// scanner is the part of AlertGenerator the scheduler drives.
type scanner interface {
	ScanAndRaise(ctx context.Context) (int, error)
}

// AlertScheduler runs alert scans periodically. It only ever raises alerts;
// batch statuses are not touched on a clock.
type AlertScheduler struct {
	scanner  scanner
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewAlertScheduler creates a scheduler that scans every interval.
func NewAlertScheduler(generator *AlertGenerator, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return newAlertScheduler(generator, interval, log)
}

func newAlertScheduler(s scanner, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return &AlertScheduler{
		scanner:  s,
		interval: interval,
		logger:   log.WithComponent("alert_scheduler"),
	}
}

// Start starts the scheduler in a background goroutine. The first scan runs immediately.
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(actor.WithActor(ctx, actor.SystemActor()))
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		s.runScanCycle(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runScanCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *AlertScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *AlertScheduler) runScanCycle(ctx context.Context) {
	start := time.Now()

	raised, err := s.scanner.ScanAndRaise(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("alert scan cycle failed")
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("raised", raised).
		Msg("alert scan cycle completed")
}
