package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProfitInputs are the user-editable values of the profit panel.
// All four are non-negative; see services.ParseProfitInputs for coercion.
type ProfitInputs struct {
	PagePrice      decimal.Decimal `json:"page_price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Fees           decimal.Decimal `json:"fees"`
	Shipping       decimal.Decimal `json:"shipping"`
}

// ROIKind tags the three shapes an ROI can take
type ROIKind int

const (
	ROIFinite ROIKind = iota
	ROIInfinite
	ROIUndefined
)

// ROI is a percentage, or a symbolic value when the page price is zero
type ROI struct {
	Kind    ROIKind
	Percent decimal.Decimal // only meaningful for ROIFinite
}

// String renders the ROI the way the panel shows it
func (r ROI) String() string {
	switch r.Kind {
	case ROIInfinite:
		return "∞"
	case ROIUndefined:
		return "N/A"
	default:
		return r.Percent.StringFixed(2) + "%"
	}
}

// MarshalJSON encodes a finite ROI as a number and the others as
// "infinite" / "undefined"
func (r ROI) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ROIInfinite:
		return json.Marshal("infinite")
	case ROIUndefined:
		return json.Marshal("undefined")
	default:
		f, _ := r.Percent.Float64()
		return json.Marshal(f)
	}
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON
func (r *ROI) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "infinite":
			*r = ROI{Kind: ROIInfinite}
		case "undefined":
			*r = ROI{Kind: ROIUndefined}
		default:
			return fmt.Errorf("unknown roi value %q", s)
		}
		return nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid roi: %w", err)
	}
	*r = ROI{Kind: ROIFinite, Percent: d}
	return nil
}

// ProfitResult is derived from ProfitInputs and never persisted
type ProfitResult struct {
	Profit decimal.Decimal `json:"profit"`
	ROI    ROI             `json:"roi"`
}
