package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one run of a periodic job.
type Task func(context.Context) error

// Periodic runs a task on a fixed interval until stopped.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPeriodic builds a periodic job. A non-positive interval defaults to one minute.
func NewPeriodic(name string, interval time.Duration, task Task, logger *zap.Logger) *Periodic {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Periodic{name: name, interval: interval, task: task, logger: logger}
}

// Start launches the ticker loop. Safe to call once.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	var runCtx context.Context
	runCtx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(runCtx)
	p.started = true
	p.logger.Sugar().Infow("periodic job started", "job", p.name, "interval", p.interval.String())
}

// Stop cancels the loop and waits for a running task to return.
func (p *Periodic) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Sugar().Infow("periodic job stopped", "job", p.name)
}

func (p *Periodic) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.task(ctx); err != nil {
				p.logger.Sugar().Warnw("periodic job failed", "job", p.name, "error", err)
			}
		}
	}
}
