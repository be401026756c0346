package services

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecalculate(t *testing.T) {
	tests := []struct {
		name       string
		inputs     models.ProfitInputs
		wantProfit string
		wantROI    models.ROIKind
		wantPct    string
	}{
		{
			name:       "free item with profit is infinite",
			inputs:     ParseProfitInputs("0", "10", "1", "0.55"),
			wantProfit: "8.45",
			wantROI:    models.ROIInfinite,
		},
		{
			name:       "all zero is undefined",
			inputs:     ParseProfitInputs("0", "0", "0", "0"),
			wantProfit: "0",
			wantROI:    models.ROIUndefined,
		},
		{
			name:       "free item with loss is undefined",
			inputs:     ParseProfitInputs("0", "1", "2", "0"),
			wantProfit: "-1",
			wantROI:    models.ROIUndefined,
		},
		{
			name:       "regular purchase",
			inputs:     ParseProfitInputs("10", "20", "2", "0.55"),
			wantProfit: "7.45",
			wantROI:    models.ROIFinite,
			wantPct:    "74.5",
		},
		{
			name:       "loss",
			inputs:     ParseProfitInputs("30", "20", "2.51", "0.55"),
			wantProfit: "-13.06",
			wantROI:    models.ROIFinite,
			wantPct:    "-43.53",
		},
		{
			name:       "rounds to two places",
			inputs:     ParseProfitInputs("3", "4", "0", "0"),
			wantProfit: "1",
			wantROI:    models.ROIFinite,
			wantPct:    "33.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recalculate(tt.inputs)
			assert.True(t, got.Profit.Equal(dec(tt.wantProfit)), "profit = %s, want %s", got.Profit, tt.wantProfit)
			assert.Equal(t, tt.wantROI, got.ROI.Kind)
			if tt.wantROI == models.ROIFinite {
				assert.True(t, got.ROI.Percent.Equal(dec(tt.wantPct)), "roi = %s, want %s", got.ROI.Percent, tt.wantPct)
			}
		})
	}
}

func TestRecalculateROIString(t *testing.T) {
	assert.Equal(t, "74.50%", Recalculate(ParseProfitInputs("10", "20", "2", "0.55")).ROI.String())
	assert.Equal(t, "∞", Recalculate(ParseProfitInputs("0", "10", "1", "0.55")).ROI.String())
	assert.Equal(t, "N/A", Recalculate(ParseProfitInputs("", "", "", "")).ROI.String())
}

func TestParseProfitInputsCoercesToZero(t *testing.T) {
	in := ParseProfitInputs("", "abc", "NaN", "-3")
	assert.True(t, in.PagePrice.IsZero())
	assert.True(t, in.ReferencePrice.IsZero())
	assert.True(t, in.Fees.IsZero())
	assert.True(t, in.Shipping.IsZero())

	assert.NotPanics(t, func() { Recalculate(in) })
}

func TestParseAmount(t *testing.T) {
	assert.True(t, ParseAmount("$12.34").Equal(dec("12.34")))
	assert.True(t, ParseAmount(" 0.55 ").Equal(dec("0.55")))
	assert.True(t, ParseAmount("1.").Equal(dec("1")))
	assert.True(t, ParseAmount(".5").Equal(dec("0.5")))
	assert.True(t, ParseAmount("1e2").Equal(dec("100")))

	for _, odd := range []string{"Inf", "NaN", "1_0", "0x10", "0b11", "1,000", "12abc", "$", "--1"} {
		assert.True(t, ParseAmount(odd).IsZero(), "%q should read as 0", odd)
	}
}

func TestNewProfitInputsNonFinite(t *testing.T) {
	in := NewProfitInputs(math.NaN(), math.Inf(1), -1, 0.55)
	assert.True(t, in.PagePrice.IsZero())
	assert.True(t, in.ReferencePrice.IsZero())
	assert.True(t, in.Fees.IsZero())
	assert.True(t, in.Shipping.Equal(dec("0.55")))
}

func TestRecalculateClampsNegativeInputs(t *testing.T) {
	got := Recalculate(models.ProfitInputs{
		PagePrice:      dec("-5"),
		ReferencePrice: dec("10"),
	})
	assert.True(t, got.Profit.Equal(dec("10")))
	assert.Equal(t, models.ROIInfinite, got.ROI.Kind)
}
