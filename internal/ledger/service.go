// Package ledger owns the three record collections of a session. Every
// mutation loads the whole snapshot, changes it and saves it back while
// holding the store's writer lock, so the server and the worker never
// overwrite each other; readers always see a complete snapshot.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"rupaiya/internal/amqp"
	"rupaiya/internal/analytics"
	"rupaiya/internal/cache"
	"rupaiya/internal/core"
	"rupaiya/internal/importer"
	"rupaiya/internal/log"
	"rupaiya/internal/storage"
)

var (
	// ErrNotFound is returned by Delete for an id absent from its collection.
	ErrNotFound = errors.New("record not found")
	// ErrInvalid wraps every validation failure of a new record.
	ErrInvalid = errors.New("invalid record")
)

// Publisher receives ledger events. Failures are logged and never fail the
// operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, ev amqp.LedgerEvent) error
}

type Service struct {
	mu     sync.Mutex
	store  storage.Store
	guard  importer.Guard
	ids    *core.IDGenerator
	pub    Publisher
	views  *cache.LRUCache[any]
	gen    uint64
	prefix string
	logger *log.Logger
	events *log.StructuredLogger
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithViewCache caches dashboards, breakdowns and series until the next
// mutation.
func WithViewCache(c *cache.LRUCache[any]) Option {
	return func(s *Service) { s.views = c }
}

func WithIDGenerator(g *core.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

// WithImportPrefix sets the prefix of imported record ids.
func WithImportPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = prefix }
}

func NewService(store storage.Store, guard importer.Guard, logger *log.Logger, opts ...Option) *Service {
	if guard == nil {
		guard = importer.NewLocalGuard()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentLedger)
	s := &Service{
		store:  store,
		guard:  guard,
		ids:    core.NewIDGenerator(),
		prefix: importer.DefaultPrefix,
		logger: logger,
		events: log.NewStructuredLogger(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the full ledger.
func (s *Service) Snapshot(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.LoadLedger(ctx, s.store)
}

type IncomeInput struct {
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Source      string     `json:"source"`
	Description string     `json:"description"`
}

type ExpenseInput struct {
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
}

type InvestmentInput struct {
	Date        core.Date  `json:"date"`
	Amount      core.Money `json:"amount"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
}

func (s *Service) AddIncome(ctx context.Context, in IncomeInput) (core.Income, error) {
	rec := core.NewIncome(s.ids.Next(), in.Date, in.Amount, in.Source, in.Description)
	if err := rec.Validate(); err != nil {
		return core.Income{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	err := s.mutate(ctx, func(l *core.Ledger) error {
		l.Incomes = prepend(l.Incomes, rec)
		return nil
	})
	if err != nil {
		return core.Income{}, err
	}
	s.created(ctx, core.KindIncome, rec.Transaction, rec.Source)
	return rec, nil
}

func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	rec := core.NewExpense(s.ids.Next(), in.Date, in.Amount, in.Category, core.ExpenseType(strings.ToLower(strings.TrimSpace(in.Type))), in.Description)
	if err := rec.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	err := s.mutate(ctx, func(l *core.Ledger) error {
		l.Expenses = prepend(l.Expenses, rec)
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	s.created(ctx, core.KindExpense, rec.Transaction, rec.Category)
	return rec, nil
}

func (s *Service) AddInvestment(ctx context.Context, in InvestmentInput) (core.Investment, error) {
	rec := core.NewInvestment(s.ids.Next(), in.Date, in.Amount, in.Type, in.Description)
	if err := rec.Validate(); err != nil {
		return core.Investment{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	err := s.mutate(ctx, func(l *core.Ledger) error {
		l.Investments = prepend(l.Investments, rec)
		return nil
	})
	if err != nil {
		return core.Investment{}, err
	}
	s.created(ctx, core.KindInvestment, rec.Transaction, rec.Type)
	return rec, nil
}

// Delete removes one record from the collection of the given kind.
func (s *Service) Delete(ctx context.Context, kind core.Kind, id string) error {
	err := s.mutate(ctx, func(l *core.Ledger) error {
		if !l.Remove(kind, id) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Record deleted",
		log.FieldRecordKind, kind,
		log.FieldRecordID, id,
		log.FieldOperation, log.OpDelete)
	s.publish(ctx, amqp.NewRecordEvent(amqp.EventRecordDeleted, string(kind), id, ""))
	return nil
}

// Import fetches the source's current batch and appends the records that
// are new. A fetch failure aborts the import before anything is saved.
// Only one import runs at a time; a concurrent call gets ErrInFlight.
func (s *Service) Import(ctx context.Context, src importer.Source) (importer.Report, error) {
	release, err := s.guard.TryAcquire(ctx)
	if err != nil {
		return importer.Report{}, err
	}
	defer release()

	start := time.Now()
	batch, err := src.Fetch(ctx)
	if err != nil {
		s.events.LogError(ctx, "Import fetch failed", err, log.OpImport, log.NewFields().WithImport(src.Name(), 0, 0))
		return importer.Report{}, err
	}

	var res importer.Result
	err = s.mutate(ctx, func(l *core.Ledger) error {
		res = importer.Reconcile(*l, batch, s.prefix, s.logger.Slog())
		if res.Added() == 0 {
			return errUnchanged
		}
		*l = res.Apply(*l)
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return importer.Report{}, err
	}

	report := importer.NewReport(src.Name(), res)
	s.events.LogImport(ctx, src.Name(), report.Added, len(report.Skipped))
	s.logger.DebugContext(ctx, "Import timing", "fetched", len(batch), log.FieldDuration, time.Since(start).Milliseconds())
	if report.Added > 0 {
		s.publish(ctx, amqp.NewImportEvent(src.Name(), report.Added))
	}
	return report, nil
}

// errUnchanged lets a mutation skip the save without failing.
var errUnchanged = errors.New("unchanged")

func (s *Service) mutate(ctx context.Context, fn func(*core.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lk, ok := s.store.(storage.Locker); ok {
		unlock, err := lk.Lock(ctx)
		if err != nil {
			return fmt.Errorf("lock ledger: %w", err)
		}
		defer unlock()
	}

	l, err := storage.LoadLedger(ctx, s.store)
	if err != nil {
		return err
	}
	if err := fn(&l); err != nil {
		return err
	}
	if err := storage.SaveLedger(ctx, s.store, l); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Invalidate drops cached views. The worker's imports reach the server
// through ledger events, which call this.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidate()
}

func (s *Service) invalidate() {
	s.gen++
	if s.views != nil {
		s.views.Purge()
	}
}

func (s *Service) created(ctx context.Context, kind core.Kind, t core.Transaction, label string) {
	s.events.LogRecordCreated(ctx, string(kind), t.ID, t.Month, t.Amount.Cents, label)
	s.publish(ctx, amqp.NewRecordEvent(amqp.EventRecordCreated, string(kind), t.ID, t.Month))
}

func (s *Service) publish(ctx context.Context, ev amqp.LedgerEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event", "type", ev.Type, log.FieldError, err)
	}
}

func prepend[T any](recs []T, rec T) []T {
	out := make([]T, 0, len(recs)+1)
	out = append(out, rec)
	return append(out, recs...)
}

// Dashboard is the month view for the month containing day.
func (s *Service) Dashboard(ctx context.Context, day core.Date) (analytics.Dashboard, error) {
	return view(ctx, s, "dashboard:"+day.MonthKey(), func(l core.Ledger) analytics.Dashboard {
		return analytics.BuildDashboard(l, day)
	})
}

// Breakdown is the needs/wants view for one period. An empty key selects
// the newest period.
func (s *Service) Breakdown(ctx context.Context, tf core.Timeframe, key string) (analytics.PeriodBreakdown, error) {
	return view(ctx, s, "breakdown:"+string(tf)+":"+key, func(l core.Ledger) analytics.PeriodBreakdown {
		return analytics.BuildBreakdown(l, tf, key)
	})
}

func (s *Service) Series(ctx context.Context, year int) (analytics.Series, error) {
	return view(ctx, s, "series:"+strconv.Itoa(year), func(l core.Ledger) analytics.Series {
		return analytics.MonthlySeries(l, year)
	})
}

// Years lists the years with income or expenses, newest first.
func (s *Service) Years(ctx context.Context, now time.Time) ([]int, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.AvailableYears(l.Incomes, l.Expenses, now), nil
}

func view[T any](ctx context.Context, s *Service, key string, build func(core.Ledger) T) (T, error) {
	if s.views != nil {
		if v, ok := s.views.Get(key); ok {
			if t, ok := v.(T); ok {
				return t, nil
			}
		}
	}
	s.mu.Lock()
	l, err := storage.LoadLedger(ctx, s.store)
	gen := s.gen
	s.mu.Unlock()
	if err != nil {
		var zero T
		return zero, err
	}
	v := build(l)
	if s.views != nil {
		s.mu.Lock()
		// A mutation since the load makes v stale.
		if s.gen == gen {
			s.views.Set(key, v)
		}
		s.mu.Unlock()
	}
	return v, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
