package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/codyseavey/card-flip-checker/internal/metrics"
	"github.com/codyseavey/card-flip-checker/internal/models"
)

// ErrLedgerNotLoaded is returned when recording before LoadTodayTotal
var ErrLedgerNotLoaded = errors.New("ledger not loaded")

// ErrInvalidAmount is returned when an amount, or the total it would
// produce, is not a finite number
var ErrInvalidAmount = errors.New("amount must be a finite number")

// LedgerState is the load state of a Ledger session
type LedgerState int

const (
	LedgerUninitialized LedgerState = iota
	LedgerLoaded
)

// Ledger is a session over the daily profit mapping. It must be loaded
// before profits can be recorded. Calls within one process are serialised;
// two processes sharing a store can still lose an update.
type Ledger struct {
	store  LedgerStore
	now    func() time.Time
	logger *zap.Logger

	mu      sync.Mutex
	state   LedgerState
	entries map[string]float64
}

// NewLedger creates an unloaded ledger session over store
func NewLedger(store LedgerStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		now:    time.Now,
		logger: logger.Named("ledger"),
	}
}

// SetClock overrides the clock used to pick "today"
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// State returns the current load state
func (l *Ledger) State() LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Ledger) today() string {
	return models.DateKey(l.now())
}

// LoadTodayTotal reads the persisted mapping and returns today's total, or 0
func (l *Ledger) LoadTodayTotal(ctx context.Context) (float64, error) {
	entries, err := l.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	l.state = LedgerLoaded

	total := l.entries[l.today()]
	metrics.LedgerTodayProfit.Set(total)
	l.logger.Debug("Loaded ledger", zap.Int("days", len(entries)), zap.Float64("today", total))
	return total, nil
}

// TodayTotal returns today's running total without touching the store
func (l *Ledger) TodayTotal() (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LedgerLoaded {
		return 0, ErrLedgerNotLoaded
	}
	return l.entries[l.today()], nil
}

// RecordProfit adds amount to today's total and persists the mapping.
// The in-memory total is updated even if the write fails, so the session
// keeps observing its own records.
func (l *Ledger) RecordProfit(ctx context.Context, amount float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != LedgerLoaded {
		return 0, ErrLedgerNotLoaded
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrInvalidAmount
	}

	key := l.today()
	current := l.entries[key]
	total, _ := decimal.NewFromFloat(current).Add(decimal.NewFromFloat(amount)).Float64()
	if math.IsNaN(total) || math.IsInf(total, 0) {
		l.logger.Warn("Rejected profit that overflows the daily total",
			zap.String("date", key), zap.Float64("amount", amount))
		return current, ErrInvalidAmount
	}
	l.entries[key] = total

	metrics.LedgerRecordsTotal.Inc()
	metrics.LedgerTodayProfit.Set(total)

	snapshot := make(map[string]float64, len(l.entries))
	for k, v := range l.entries {
		snapshot[k] = v
	}
	if err := l.store.Save(ctx, snapshot); err != nil {
		l.logger.Error("Failed to persist ledger", zap.String("date", key), zap.Error(err))
		return total, err
	}

	l.logger.Info("Recorded profit", zap.String("date", key), zap.Float64("amount", amount), zap.Float64("total", total))
	return total, nil
}

// History returns all ledger entries ordered by date
func (l *Ledger) History() ([]models.DailyProfit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != LedgerLoaded {
		return nil, ErrLedgerNotLoaded
	}

	history := make([]models.DailyProfit, 0, len(l.entries))
	for date, profit := range l.entries {
		history = append(history, models.DailyProfit{Date: date, Profit: profit})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date < history[j].Date })
	return history, nil
}
