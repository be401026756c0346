package models

// SaturationLevel describes how crowded the listing market is for a card
type SaturationLevel string

const (
	SaturationHigh     SaturationLevel = "High"
	SaturationModerate SaturationLevel = "Moderate"
	SaturationLow      SaturationLevel = "Low"
)

// MarketStats is the aggregated eBay market picture for one lookup.
// Optional numbers are pointers so that "not available" never reads as zero.
type MarketStats struct {
	CardName      string       `json:"card_name"`
	PagePrice     float64      `json:"page_price"`
	MedianPrice   *float64     `json:"median_price,omitempty"`
	AveragePrice  *float64     `json:"average_price,omitempty"`
	LowestPrice   *float64     `json:"lowest_price,omitempty"`
	HighestPrice  *float64     `json:"highest_price,omitempty"`
	EstimatedFees *float64     `json:"estimated_ebay_fees,omitempty"`
	NumListings   *int         `json:"num_listings,omitempty"`
	SalesVelocity *float64     `json:"sales_velocity,omitempty"` // sales per day
	RecentSales   []RecentSale `json:"recent_sales,omitempty"`
}

// RecentSale is a listing that ended within the last week
type RecentSale struct {
	Price float64 `json:"price"`
	Date  string  `json:"date"` // "2006-01-02 15:04:05" UTC
	Title string  `json:"title"`
}

// Saturation buckets the listing count: >50 High, >20 Moderate, else Low.
// A missing count is Low.
func (m *MarketStats) Saturation() SaturationLevel {
	if m == nil || m.NumListings == nil {
		return SaturationLow
	}
	switch n := *m.NumListings; {
	case n > 50:
		return SaturationHigh
	case n > 20:
		return SaturationModerate
	default:
		return SaturationLow
	}
}

// SearchResponse is the /search wire envelope
type SearchResponse struct {
	Success  bool         `json:"success"`
	Data     *MarketStats `json:"data,omitempty"`
	Analysis string       `json:"analysis,omitempty"`
	Error    string       `json:"error,omitempty"`
	Details  string       `json:"details,omitempty"`
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
