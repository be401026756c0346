package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

type fakeFinder struct {
	items []EbayItem
	err   error
	calls []string
}

func (f *fakeFinder) FindItems(_ context.Context, keywords string) ([]EbayItem, error) {
	f.calls = append(f.calls, keywords)
	return f.items, f.err
}

var statsNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func sampleItems() []EbayItem {
	return []EbayItem{
		{Title: "Zard A", CurrentPrice: "10.00", EndTime: "2024-05-09T10:00:00.000Z"},
		{Title: "Zard B", CurrentPrice: "30.00", EndTime: "2024-04-01T10:00:00.000Z"},
		{Title: "Zard C", CurrentPrice: "20.00", EndTime: "2024-05-08T10:00:00.000Z"},
		{Title: "Zard D", CurrentPrice: "40.00", EndTime: ""},
		{Title: "No price", CurrentPrice: ""},
	}
}

func TestComputeStats(t *testing.T) {
	stats, err := ComputeStats(sampleItems(), statsNow)
	require.NoError(t, err)

	assert.Equal(t, 25.0, *stats.AveragePrice)
	assert.Equal(t, 30.0, *stats.MedianPrice, "median is the upper middle of an even count")
	assert.Equal(t, 10.0, *stats.LowestPrice)
	assert.Equal(t, 40.0, *stats.HighestPrice)
	assert.Equal(t, 4, *stats.NumListings)
	assert.InDelta(t, 25*EbayFeeRate, *stats.EstimatedFees, 1e-9)
	assert.InDelta(t, 2.0/7, *stats.SalesVelocity, 1e-9)

	require.Len(t, stats.RecentSales, 2)
	assert.Equal(t, models.RecentSale{Price: 10, Date: "2024-05-09 10:00:00", Title: "Zard A"}, stats.RecentSales[0])
	assert.Equal(t, "Zard C", stats.RecentSales[1].Title)
}

func TestComputeStatsLimitsRecentSales(t *testing.T) {
	var items []EbayItem
	for i := 0; i < 8; i++ {
		end := statsNow.Add(-time.Duration(i+1) * time.Hour).Format(ebayEndTimeLayout)
		items = append(items, EbayItem{Title: "card", CurrentPrice: "1.00", EndTime: end})
	}

	stats, err := ComputeStats(items, statsNow)
	require.NoError(t, err)
	assert.Len(t, stats.RecentSales, 5)
	assert.InDelta(t, 8.0/7, *stats.SalesVelocity, 1e-9)
	assert.Equal(t, statsNow.Add(-time.Hour).Format(saleDateLayout), stats.RecentSales[0].Date)
}

func TestComputeStatsNoValidPrices(t *testing.T) {
	_, err := ComputeStats([]EbayItem{{Title: "x", CurrentPrice: "abc"}}, statsNow)

	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.Equal(t, SearchErrNoValidData, searchErr.Kind)
}

func TestSanitizeKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Charizard VMAX", "Charizard VMAX"},
		{"  Champion's Path (Secret) ", "Champions Path Secret"},
		{"Pokémon #025/165", "Pokémon 025165"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeKeywords(tt.in), tt.in)
	}
}

func TestMarketServiceSearch(t *testing.T) {
	finder := &fakeFinder{items: sampleItems()}
	svc := NewMarketService(finder, 10, time.Minute, zaptest.NewLogger(t))
	svc.now = func() time.Time { return statsNow }

	stats, analysis, err := svc.Search(context.Background(), "Charizard (VMAX)", 12.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Charizard VMAX"}, finder.calls)
	assert.Equal(t, "Charizard (VMAX)", stats.CardName)
	assert.Equal(t, 12.5, stats.PagePrice)
	assert.Contains(t, analysis, "Card: Charizard (VMAX)")
	assert.Contains(t, analysis, "Page Price: $12.50")

	// Second search for the same card is served from cache but keeps its own page price
	stats, _, err = svc.Search(context.Background(), "charizard vmax", 3)
	require.NoError(t, err)
	assert.Len(t, finder.calls, 1)
	assert.Equal(t, "charizard vmax", stats.CardName)
	assert.Equal(t, 3.0, stats.PagePrice)
}

func TestMarketServiceSearchWithoutCache(t *testing.T) {
	finder := &fakeFinder{items: sampleItems()}
	svc := NewMarketService(finder, 0, 0, nil)

	_, _, err := svc.Search(context.Background(), "Pikachu", 0)
	require.NoError(t, err)
	_, _, err = svc.Search(context.Background(), "Pikachu", 0)
	require.NoError(t, err)
	assert.Len(t, finder.calls, 2)
}

func TestMarketServiceSearchFailure(t *testing.T) {
	finder := &fakeFinder{err: &SearchError{Kind: SearchErrNoResults, Details: "No items found matching the search criteria"}}
	svc := NewMarketService(finder, 10, time.Minute, nil)

	_, _, err := svc.Search(context.Background(), "Missingno", 0)
	var searchErr *SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, SearchErrNoResults, searchErr.Kind)
}

func TestBuildAnalysis(t *testing.T) {
	stats := &models.MarketStats{
		CardName:      "Pikachu",
		PagePrice:     0,
		AveragePrice:  models.Float64Ptr(10),
		EstimatedFees: models.Float64Ptr(1),
		NumListings:   models.IntPtr(60),
	}

	analysis := BuildAnalysis(stats)
	assert.Contains(t, analysis, "eBay Median: N/A")
	assert.Contains(t, analysis, "Potential Profit: $8.45")
	assert.Contains(t, analysis, "ROI: ∞")
	assert.Contains(t, analysis, "Market Saturation: High")
	assert.Contains(t, analysis, "Estimated Sales/Day: N/A")
	assert.Contains(t, analysis, "No recent sales data available")
}
