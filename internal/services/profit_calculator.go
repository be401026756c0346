package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/card-flip-checker/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)

	// amountRegex is what a numeric input field accepts: plain decimal
	// notation with an optional exponent
	amountRegex = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Recalculate derives profit and ROI from the panel inputs.
//
//	profit = reference - fees - shipping - page
//
// With a zero page price the ROI is infinite when profit is positive and
// undefined otherwise; else it is profit/page*100 rounded to 2 places.
func Recalculate(in models.ProfitInputs) models.ProfitResult {
	page := sanitizeAmount(in.PagePrice)
	ref := sanitizeAmount(in.ReferencePrice)
	fees := sanitizeAmount(in.Fees)
	shipping := sanitizeAmount(in.Shipping)

	profit := ref.Sub(fees).Sub(shipping).Sub(page)

	var roi models.ROI
	switch {
	case page.IsZero() && profit.IsPositive():
		roi = models.ROI{Kind: models.ROIInfinite}
	case page.IsZero():
		roi = models.ROI{Kind: models.ROIUndefined}
	default:
		roi = models.ROI{
			Kind:    models.ROIFinite,
			Percent: profit.Div(page).Mul(hundred).Round(2),
		}
	}

	return models.ProfitResult{Profit: profit, ROI: roi}
}

// ParseProfitInputs builds inputs from raw field text; anything that is not
// a finite, non-negative number becomes 0.
func ParseProfitInputs(pagePrice, referencePrice, fees, shipping string) models.ProfitInputs {
	return models.ProfitInputs{
		PagePrice:      ParseAmount(pagePrice),
		ReferencePrice: ParseAmount(referencePrice),
		Fees:           ParseAmount(fees),
		Shipping:       ParseAmount(shipping),
	}
}

// NewProfitInputs builds inputs from float values with the same coercion
// rules as ParseProfitInputs
func NewProfitInputs(pagePrice, referencePrice, fees, shipping float64) models.ProfitInputs {
	return models.ProfitInputs{
		PagePrice:      AmountFromFloat(pagePrice),
		ReferencePrice: AmountFromFloat(referencePrice),
		Fees:           AmountFromFloat(fees),
		Shipping:       AmountFromFloat(shipping),
	}
}

// ParseAmount parses user input such as "12.34" or "$12.34"
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if !amountRegex.MatchString(s) {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Zero
	}
	return AmountFromFloat(f)
}

// AmountFromFloat converts f to a decimal, mapping NaN, ±Inf and negatives to 0
func AmountFromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func sanitizeAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
