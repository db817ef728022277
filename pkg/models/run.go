package models

import (
	"encoding/json"
	"time"
)

// ModelType selects which workbook family a run produces.
type ModelType string

const (
	ModelTypeLBO ModelType = "lbo"
	ModelTypeDCF ModelType = "dcf"
)

// CheckCell is an advisory sanity check embedded in a generated workbook.
// Formula holds the workbook expression; Want describes the passing state.
type CheckCell struct {
	Sheet   string `json:"sheet"`
	Cell    string `json:"cell"`
	Label   string `json:"label"`
	Formula string `json:"formula"`
	Want    string `json:"want"` // 'zero', 'positive'
}

// NamedRange records a workbook-level defined name and the range it binds.
type NamedRange struct {
	Name  string `json:"name"`
	Sheet string `json:"sheet"`
	Range string `json:"range"`
}

// RunSummary carries the headline outputs of a model build alongside the
// audit surface (check cells, named ranges, warning flags).
type RunSummary struct {
	ModelType ModelType `json:"model_type"`
	Company   string    `json:"company"`
	Years     int       `json:"years"`

	// LBO headline metrics. Zero-valued for DCF runs.
	IRR            float64 `json:"irr"`
	MOIC           float64 `json:"moic"`
	EntryEV        float64 `json:"entry_ev"`
	ExitEV         float64 `json:"exit_ev"`
	ExitEquity     float64 `json:"exit_equity"`
	EquityInvested float64 `json:"equity_invested"`

	// DCF headline metrics. Zero-valued for LBO runs.
	WACC              float64 `json:"wacc"`
	EnterpriseValue   float64 `json:"enterprise_value"`
	EquityValue       float64 `json:"equity_value"`
	ImpliedSharePrice float64 `json:"implied_share_price"`

	Flags       []string     `json:"flags"`
	Checks      []CheckCell  `json:"checks"`
	NamedRanges []NamedRange `json:"named_ranges"`
	Sheets      []string     `json:"sheets"`
}

// ModelRun is the persisted record of one generation request. Assumptions
// holds the effective document, defaults included, rendered back to JSON
// regardless of the format it was submitted in.
type ModelRun struct {
	ID           string          `json:"id"`
	Company      string          `json:"company"`
	ModelType    ModelType       `json:"model_type"`
	Assumptions  json.RawMessage `json:"assumptions,omitempty"`
	Summary      RunSummary      `json:"summary"`
	WorkbookPath string          `json:"workbook_path"`
	CreatedAt    time.Time       `json:"created_at"`
}
