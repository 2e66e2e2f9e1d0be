package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dompet/internal/sheets"
)

// SyncProcessorConfig holds configuration for the report sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often the current year is republished (default: 15m)
	PollInterval time.Duration

	// MaxRetries is the number of publish attempts per sweep (default: 3)
	MaxRetries int

	// RetryDelay is the pause between attempts, doubled each time (default: 2s)
	RetryDelay time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: 15 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
	}
}

type reportSource interface {
	MonthReport(ctx context.Context, year int, month time.Month) (sheets.MonthReport, error)
	YearReport(ctx context.Context, year int) (sheets.YearReport, error)
}

// SyncProcessor pushes derived reports to a ReportPublisher, on demand and
// on a periodic sweep that catches anything a lost event missed.
type SyncProcessor struct {
	reports   reportSource
	publisher sheets.ReportPublisher
	config    SyncProcessorConfig
	now       func() time.Time

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(reports reportSource, publisher sheets.ReportPublisher, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &SyncProcessor{
		reports:   reports,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

// SyncMonth recomputes and publishes one month.
func (p *SyncProcessor) SyncMonth(ctx context.Context, year int, month time.Month) error {
	r, err := p.reports.MonthReport(ctx, year, month)
	if err != nil {
		return fmt.Errorf("build month report %d-%02d: %w", year, int(month), err)
	}
	if err := p.publisher.PublishMonth(ctx, r); err != nil {
		return fmt.Errorf("publish month report %d-%02d: %w", year, int(month), err)
	}
	slog.InfoContext(ctx, "Month report published",
		"year", year,
		"month", int(month),
		"balance_cents", r.Summary.Balance.Cents)
	return nil
}

// SyncYear recomputes and publishes a full year, month rows and total.
func (p *SyncProcessor) SyncYear(ctx context.Context, year int) error {
	r, err := p.reports.YearReport(ctx, year)
	if err != nil {
		return fmt.Errorf("build year report %d: %w", year, err)
	}
	if err := p.publisher.PublishYear(ctx, r); err != nil {
		return fmt.Errorf("publish year report %d: %w", year, err)
	}
	slog.InfoContext(ctx, "Year report published",
		"year", year,
		"transactions", r.Total.TotalCount)
	return nil
}

// Start begins the sweep loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"max_retries", p.config.MaxRetries)

	return nil
}

// Stop gracefully stops the processor and waits for completion. Concurrent
// and repeated calls are safe; only the first one signals the loop.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
	return nil
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Sweep immediately on startup
	p.sweep(ctx, stop)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx, stop)
		}
	}
}

// sweep republishes the current year, retrying with a doubling delay.
func (p *SyncProcessor) sweep(ctx context.Context, stop <-chan struct{}) {
	year := p.now().Year()
	delay := p.config.RetryDelay
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		err := p.SyncYear(ctx, year)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "Report sweep failed",
			"year", year,
			"attempt", attempt,
			"error", err)
		if attempt == p.config.MaxRetries {
			slog.ErrorContext(ctx, "Report sweep failed permanently after max retries",
				"year", year,
				"attempts", attempt)
			return
		}
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}
