package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"rupaiya/internal/amqp"
	"rupaiya/internal/importer"
	"rupaiya/internal/log"
)

// Ledger is the part of the ledger service the worker drives.
type Ledger interface {
	Import(ctx context.Context, src importer.Source) (importer.Report, error)
	Invalidate()
}

// Stats counts what the worker has seen since it started.
type Stats struct {
	Events     map[amqp.EventType]int `json:"events"`
	Imports    int                    `json:"imports"`
	Skipped    int                    `json:"skipped"`
	Failures   int                    `json:"failures"`
	LastImport time.Time              `json:"lastImport"`
}

// ImportWorker consumes ledger events and runs scheduled imports. An import
// completed by any process pushes the next scheduled run back, so server
// and worker do not fetch the same sheet twice in a row.
type ImportWorker struct {
	ledger   Ledger
	source   importer.Source
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	mu    sync.Mutex
	stats Stats
}

func NewImportWorker(ledger Ledger, source importer.Source, interval time.Duration, logger *log.Logger) *ImportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ImportWorker{
		ledger:   ledger,
		source:   source,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		stats:    Stats{Events: make(map[amqp.EventType]int)},
	}
}

// HandleEvent processes a single ledger event from AMQP.
func (w *ImportWorker) HandleEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"kind", ev.Kind,
		"id", ev.ID,
		"source", ev.Source,
		"count", ev.Count)

	w.mu.Lock()
	w.stats.Events[ev.Type]++
	if ev.Type == amqp.EventImportCompleted && ev.Timestamp.After(w.stats.LastImport) {
		w.stats.LastImport = ev.Timestamp
	}
	w.mu.Unlock()

	w.ledger.Invalidate()
	return nil
}

// due reports whether a scheduled import should run now.
func (w *ImportWorker) due() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stats.LastImport.IsZero() {
		return true
	}
	return w.now().Sub(w.stats.LastImport) >= w.interval/2
}

// RunImport imports once. Overlapping and transport failures are logged
// and reported as skipped so a scheduled loop keeps going.
func (w *ImportWorker) RunImport(ctx context.Context) (importer.Report, error) {
	report, err := w.ledger.Import(ctx, w.source)
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err == nil:
		w.stats.Imports++
		w.stats.LastImport = w.now()
		w.logger.InfoContext(ctx, "Scheduled import finished",
			"source", report.Source,
			"status", report.Status,
			"added", report.Added,
			"skipped", len(report.Skipped))
		return report, nil
	case errors.Is(err, importer.ErrInFlight):
		w.stats.Skipped++
		w.logger.InfoContext(ctx, "Import already running elsewhere, skipping")
		return report, nil
	default:
		w.stats.Failures++
		w.logger.ErrorContext(ctx, "Scheduled import failed", "error", err)
		return report, err
	}
}

// RunScheduled imports on every tick until ctx ends. A zero interval or a
// missing source disables the schedule.
func (w *ImportWorker) RunScheduled(ctx context.Context) error {
	if w.interval <= 0 || w.source == nil {
		w.logger.Info("Scheduled imports disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.logger.Info("Scheduled imports enabled", "interval", w.interval, "source", w.source.Name())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !w.due() {
				w.logger.Debug("Recent import seen, skipping tick")
				continue
			}
			// Failures are counted and logged; the next tick retries.
			_, _ = w.RunImport(ctx)
		}
	}
}

// Stats returns a copy of the counters.
func (w *ImportWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.stats
	out.Events = make(map[amqp.EventType]int, len(w.stats.Events))
	for k, v := range w.stats.Events {
		out.Events[k] = v
	}
	return out
}
