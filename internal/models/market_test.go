package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaturation(t *testing.T) {
	tests := []struct {
		listings *int
		want     SaturationLevel
	}{
		{nil, SaturationLow},
		{IntPtr(0), SaturationLow},
		{IntPtr(20), SaturationLow},
		{IntPtr(21), SaturationModerate},
		{IntPtr(50), SaturationModerate},
		{IntPtr(51), SaturationHigh},
	}

	for _, tt := range tests {
		stats := &MarketStats{NumListings: tt.listings}
		assert.Equal(t, tt.want, stats.Saturation())
	}

	var missing *MarketStats
	assert.Equal(t, SaturationLow, missing.Saturation())
}

func TestMarketStatsOmitsMissingValues(t *testing.T) {
	stats := MarketStats{CardName: "Pikachu", PagePrice: 0, AveragePrice: Float64Ptr(0)}

	data, err := json.Marshal(stats)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 0.0, raw["average_price"], "a real zero is kept")
	assert.NotContains(t, raw, "median_price")
	assert.NotContains(t, raw, "num_listings")
}

func TestROIJSON(t *testing.T) {
	tests := []struct {
		roi  ROI
		want string
	}{
		{ROI{Kind: ROIInfinite}, `"infinite"`},
		{ROI{Kind: ROIUndefined}, `"undefined"`},
		{ROI{Kind: ROIFinite, Percent: decimal.RequireFromString("74.5")}, `74.5`},
		{ROI{Kind: ROIFinite, Percent: decimal.RequireFromString("-43.53")}, `-43.53`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.roi)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data))

		var decoded ROI
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, tt.roi.Kind, decoded.Kind)
		assert.True(t, tt.roi.Percent.Equal(decoded.Percent))
	}

	var bad ROI
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestDateKeyUsesLocation(t *testing.T) {
	utc := time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC)
	pacific := time.FixedZone("PST", -8*3600)

	assert.Equal(t, "2024-03-01", DateKey(utc))
	assert.Equal(t, "2024-02-29", DateKey(utc.In(pacific)))
}
