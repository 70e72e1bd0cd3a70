package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/tiendapanel/internal/domain/model"
	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// StockAlertSnapshot is the latest poll result.
type StockAlertSnapshot struct {
	Alerts    []model.StockAlert
	CheckedAt time.Time
	Err       error
}

// StockAlertService polls the low-stock endpoint on a fixed interval and
// keeps the latest result for the dashboard widget.
type StockAlertService struct {
	api      driven.CommerceAPI
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	snapshot StockAlertSnapshot
}

// NewStockAlertService creates a StockAlertService.
func NewStockAlertService(api driven.CommerceAPI, interval time.Duration, logger *slog.Logger) *StockAlertService {
	return &StockAlertService{api: api, interval: interval, logger: logger}
}

// Start polls immediately, then on every tick until ctx is canceled.
func (s *StockAlertService) Start(ctx context.Context) {
	s.Refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stock alert poller stopped")
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh polls once and stores the result. The poll runs as the admin
// session; without one the snapshot is simply empty.
func (s *StockAlertService) Refresh(ctx context.Context) StockAlertSnapshot {
	pollCtx := WithPagePath(ctx, "/dashboard")
	alerts, err := s.api.LowStock(pollCtx)

	snap := StockAlertSnapshot{CheckedAt: time.Now()}
	switch {
	case err == nil:
		snap.Alerts = alerts
	case errors.Is(err, driven.ErrUnauthorized):
		s.logger.Debug("stock alert poll skipped: no admin session")
		snap.Alerts = []model.StockAlert{}
	case ctx.Err() != nil:
		return s.Snapshot()
	default:
		s.logger.Error("stock alert poll failed", "error", err)
		snap.Err = err
		snap.Alerts = s.Snapshot().Alerts
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return snap
}

// Snapshot returns the latest poll result.
func (s *StockAlertService) Snapshot() StockAlertSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}
