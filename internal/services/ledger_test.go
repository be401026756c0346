package services

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

func fixedClock(date string) func() time.Time {
	t, err := time.ParseInLocation(models.LedgerDateLayout, date, time.Local)
	if err != nil {
		panic(err)
	}
	t = t.Add(15 * time.Hour)
	return func() time.Time { return t }
}

func newTestGormStore(t *testing.T) *GormLedgerStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "ledger.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DailyProfit{}))
	return NewGormLedgerStore(db)
}

var ledgerStores = map[string]func(t *testing.T) LedgerStore{
	"file": func(t *testing.T) LedgerStore {
		return NewFileLedgerStore(filepath.Join(t.TempDir(), "data", "ledger.json"))
	},
	"gorm": newGormLedgerStoreForTest,
}

func newGormLedgerStoreForTest(t *testing.T) LedgerStore {
	return newTestGormStore(t)
}

func TestLedgerRecordAccumulatesAndPersists(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range ledgerStores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)

			ledger := NewLedger(store, zaptest.NewLogger(t))
			ledger.SetClock(fixedClock("2024-05-01"))

			total, err := ledger.LoadTodayTotal(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0.0, total)

			_, err = ledger.RecordProfit(ctx, 5)
			require.NoError(t, err)
			total, err = ledger.RecordProfit(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, 8.0, total)

			current, err := ledger.TodayTotal()
			require.NoError(t, err)
			assert.Equal(t, 8.0, current)

			// A fresh session on the same date sees the persisted total
			fresh := NewLedger(store, zaptest.NewLogger(t))
			fresh.SetClock(fixedClock("2024-05-01"))
			total, err = fresh.LoadTodayTotal(ctx)
			require.NoError(t, err)
			assert.Equal(t, 8.0, total)
		})
	}
}

func TestLedgerDatesDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	for name, newStore := range ledgerStores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)

			dayA := NewLedger(store, nil)
			dayA.SetClock(fixedClock("2024-05-01"))
			_, err := dayA.LoadTodayTotal(ctx)
			require.NoError(t, err)
			_, err = dayA.RecordProfit(ctx, 10)
			require.NoError(t, err)

			dayB := NewLedger(store, nil)
			dayB.SetClock(fixedClock("2024-05-02"))
			total, err := dayB.LoadTodayTotal(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0.0, total)
			_, err = dayB.RecordProfit(ctx, 2.5)
			require.NoError(t, err)

			entries, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"2024-05-01": 10, "2024-05-02": 2.5}, entries)
		})
	}
}

func TestLedgerRecordBeforeLoad(t *testing.T) {
	ledger := NewLedger(NewFileLedgerStore(filepath.Join(t.TempDir(), "ledger.json")), nil)
	assert.Equal(t, LedgerUninitialized, ledger.State())

	_, err := ledger.RecordProfit(context.Background(), 5)
	assert.ErrorIs(t, err, ErrLedgerNotLoaded)

	_, err = ledger.TodayTotal()
	assert.ErrorIs(t, err, ErrLedgerNotLoaded)

	_, err = ledger.History()
	assert.ErrorIs(t, err, ErrLedgerNotLoaded)
}

func TestLedgerRollsOverAtMidnight(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(NewFileLedgerStore(filepath.Join(t.TempDir(), "ledger.json")), nil)
	ledger.SetClock(fixedClock("2024-05-01"))
	_, err := ledger.LoadTodayTotal(ctx)
	require.NoError(t, err)
	_, err = ledger.RecordProfit(ctx, 4)
	require.NoError(t, err)

	ledger.SetClock(fixedClock("2024-05-02"))
	total, err := ledger.RecordProfit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, total)

	history, err := ledger.History()
	require.NoError(t, err)
	assert.Equal(t, []models.DailyProfit{
		{Date: "2024-05-01", Profit: 4},
		{Date: "2024-05-02", Profit: 1},
	}, history)
}

type failingStore struct {
	entries map[string]float64
}

func (s *failingStore) Load(context.Context) (map[string]float64, error) {
	return s.entries, nil
}

func (s *failingStore) Save(context.Context, map[string]float64) error {
	return errors.New("disk full")
}

func TestLedgerKeepsTotalWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&failingStore{entries: map[string]float64{}}, zaptest.NewLogger(t))
	ledger.SetClock(fixedClock("2024-05-01"))
	_, err := ledger.LoadTodayTotal(ctx)
	require.NoError(t, err)

	total, err := ledger.RecordProfit(ctx, 6)
	assert.Error(t, err)
	assert.Equal(t, 6.0, total)

	current, err := ledger.TodayTotal()
	require.NoError(t, err)
	assert.Equal(t, 6.0, current)
}

func TestFileLedgerStoreMissingFile(t *testing.T) {
	store := NewFileLedgerStore(filepath.Join(t.TempDir(), "nope", "ledger.json"))
	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLedgerRejectsOverflowingTotal(t *testing.T) {
	ctx := context.Background()
	store := NewFileLedgerStore(filepath.Join(t.TempDir(), "ledger.json"))
	ledger := NewLedger(store, zaptest.NewLogger(t))
	ledger.SetClock(fixedClock("2024-05-01"))
	_, err := ledger.LoadTodayTotal(ctx)
	require.NoError(t, err)

	_, err = ledger.RecordProfit(ctx, 1e308)
	require.NoError(t, err)

	total, err := ledger.RecordProfit(ctx, 1e308)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 1e308, total)

	_, err = ledger.RecordProfit(ctx, -1e308)
	require.NoError(t, err)
	total, err = ledger.RecordProfit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, total)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"2024-05-01": 1}, entries)
}

func TestLedgerRejectsNonFiniteAmount(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&failingStore{entries: map[string]float64{}}, nil)
	_, err := ledger.LoadTodayTotal(ctx)
	require.NoError(t, err)

	_, err = ledger.RecordProfit(ctx, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ledger.RecordProfit(ctx, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	current, err := ledger.TodayTotal()
	require.NoError(t, err)
	assert.Equal(t, 0.0, current)
}
