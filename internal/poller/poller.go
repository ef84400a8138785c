package poller

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 60 * time.Second

// Poller invokes a mail-check on a fixed interval. Iterations never overlap:
// the next cycle does not start until the previous one has finished.
type Poller struct {
	interval time.Duration
	poll     func(ctx context.Context) error
	logger   *slog.Logger
}

// New creates a Poller running poll every interval.
func New(interval time.Duration, poll func(ctx context.Context) error, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval: interval,
		poll:     poll,
		logger:   logger,
	}
}

// Run polls immediately, then on every tick, until ctx is cancelled. A
// failed poll is logged and the loop continues after the normal interval; no
// backoff, no jitter.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("starting poller", "interval", p.interval)

	p.once(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.once(ctx)
		}
	}
}

func (p *Poller) once(ctx context.Context) {
	if err := p.poll(ctx); err != nil {
		p.logger.Error("poll failed", "error", err)
	}
}
