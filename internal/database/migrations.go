package database

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

// ImportProfitData adds a browser-extension profitData export (date -> profit)
// to the daily_profits table. Days already present are summed, so importing
// the same export twice counts it twice. Keys that are not YYYY-MM-DD dates
// and non-finite values are skipped. Returns the number of days imported.
func ImportProfitData(ctx context.Context, db *gorm.DB, profitData map[string]float64, log *zap.Logger) (int, error) {
	rows := make([]models.DailyProfit, 0, len(profitData))
	for date, profit := range profitData {
		if _, err := time.Parse(models.LedgerDateLayout, date); err != nil {
			log.Warn("Skipping profitData entry with invalid date", zap.String("date", date))
			continue
		}
		if math.IsNaN(profit) || math.IsInf(profit, 0) {
			log.Warn("Skipping profitData entry with invalid amount", zap.String("date", date))
			continue
		}
		rows = append(rows, models.DailyProfit{Date: date, Profit: profit})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"profit":     gorm.Expr("daily_profits.profit + excluded.profit"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import profit data: %w", err)
	}

	log.Info("Imported profitData", zap.Int("days", len(rows)))
	return len(rows), nil
}
