package catalogue

import (
	"context"
	"log/slog"
	"time"
)

// Refresher renews the catalogue cache on a ticker so that most requests
// hit a warm cache. It is optional; the Service works without it.
type Refresher struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
}

func NewRefresher(service *Service, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		service:  service,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("catalogue refresher started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		if err := r.RunOnce(ctx); err != nil {
			r.logger.Warn("catalogue initial refresh failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("catalogue refresher stopped")
				close(r.stopCh)
				return
			case <-ticker.C:
				if err := r.RunOnce(ctx); err != nil {
					r.logger.Warn("catalogue refresh cycle failed", "error", err)
				}
			}
		}
	}()
}

func (r *Refresher) StopWait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-r.stopCh:
	case <-time.After(timeout):
	}
}

func (r *Refresher) RunOnce(ctx context.Context) error {
	requestCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return r.service.Refresh(requestCtx)
}
