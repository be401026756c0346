package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

// LedgerStore persists the whole date -> profit mapping at once
type LedgerStore interface {
	Load(ctx context.Context) (map[string]float64, error)
	Save(ctx context.Context, entries map[string]float64) error
}

// GormLedgerStore keeps one daily_profits row per date
type GormLedgerStore struct {
	db *gorm.DB
}

// NewGormLedgerStore creates a ledger store on an initialized database
func NewGormLedgerStore(db *gorm.DB) *GormLedgerStore {
	return &GormLedgerStore{db: db}
}

func (s *GormLedgerStore) Load(ctx context.Context) (map[string]float64, error) {
	var rows []models.DailyProfit
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	entries := make(map[string]float64, len(rows))
	for _, r := range rows {
		entries[r.Date] = r.Profit
	}
	return entries, nil
}

func (s *GormLedgerStore) Save(ctx context.Context, entries map[string]float64) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]models.DailyProfit, 0, len(entries))
	for date, profit := range entries {
		rows = append(rows, models.DailyProfit{Date: date, Profit: profit})
	}

	// Bulk upsert keyed on the date
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"profit", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// FileLedgerStore keeps the mapping as a JSON object on disk
type FileLedgerStore struct {
	path string
}

// NewFileLedgerStore creates a JSON file ledger store at path
func NewFileLedgerStore(path string) *FileLedgerStore {
	return &FileLedgerStore{path: path}
}

type ledgerFile struct {
	ProfitData map[string]float64 `json:"profitData"`
}

func (s *FileLedgerStore) Load(_ context.Context) (map[string]float64, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]float64{}, nil
		}
		return nil, err
	}

	var f ledgerFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to decode ledger file: %w", err)
	}
	if f.ProfitData == nil {
		f.ProfitData = map[string]float64{}
	}
	return f.ProfitData, nil
}

func (s *FileLedgerStore) Save(_ context.Context, entries map[string]float64) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(ledgerFile{ProfitData: entries}, "", "  ")
	if err != nil {
		return err
	}

	// Write-then-rename; readers never see a partial file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
