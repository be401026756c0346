package models

import "time"

// LedgerDateLayout is the key format of the daily ledger (local calendar date)
const LedgerDateLayout = "2006-01-02"

// DailyProfit is one ledger row: the accumulated recorded profit for a day
type DailyProfit struct {
	Date      string    `json:"date" gorm:"primaryKey;size:10"`
	Profit    float64   `json:"profit" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerHistoryResponse is the API response for ledger history
type LedgerHistoryResponse struct {
	Entries []DailyProfit `json:"entries"`
	Total   float64       `json:"total"`
}

// DateKey formats t as a ledger key in t's own location
func DateKey(t time.Time) string {
	return t.Format(LedgerDateLayout)
}
