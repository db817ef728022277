package assumption

import (
	"fmt"
)

// =============================================================================
// REGISTRY (validated, ordered input cells for the Assumptions tab)
// =============================================================================

// ValueKind drives the style and number format of an assumption cell.
type ValueKind string

const (
	KindMoney    ValueKind = "money"
	KindPercent  ValueKind = "percent"
	KindMultiple ValueKind = "multiple"
	KindYear     ValueKind = "year"
	KindNumber   ValueKind = "number"
	KindText     ValueKind = "text"
)

// Entry is one row of an Assumptions-tab section. Name is the defined-name
// token downstream formulas use; an empty Name means the row is informational
// only. Derived rows carry no value here; the tab writer emits them as
// formulas over earlier entries.
type Entry struct {
	Name    string
	Label   string
	Value   float64
	Text    string
	Kind    ValueKind
	Derived bool
}

// Section is a titled group of entries, written in order under one banner.
type Section struct {
	Title   string
	Entries []Entry
}

// Registry is the immutable input surface of one run: every named assumption
// cell, grouped and ordered exactly as the Assumptions tab lays them out.
type Registry struct {
	years    int
	sections []Section
	byName   map[string]Entry
}

func newRegistry(years int, sections []Section) (*Registry, error) {
	r := &Registry{
		years:    years,
		sections: sections,
		byName:   make(map[string]Entry),
	}
	for _, s := range sections {
		for _, e := range s.Entries {
			if e.Name == "" {
				continue
			}
			if _, exists := r.byName[e.Name]; exists {
				return nil, fmt.Errorf("assumption %q registered twice", e.Name)
			}
			r.byName[e.Name] = e
		}
	}
	return r, nil
}

// NewLBORegistry validates a and lays out the three LBO assumption sections.
func NewLBORegistry(a CompanyAssumptions) (*Registry, error) {
	if err := a.ValidateLBO(); err != nil {
		return nil, err
	}
	sections := []Section{
		{
			Title: "Timing / Horizon",
			Entries: []Entry{
				{Name: "BaseYear", Label: "Base Year", Value: float64(a.BaseYear), Kind: KindYear},
				{Name: "HoldPeriod", Label: "Hold Period (Years)", Value: float64(a.HoldPeriodYears), Kind: KindYear},
			},
		},
		{
			Title: "Operating / Financial Drivers",
			Entries: []Entry{
				{Name: "Rev0", Label: "Revenue (Base Year)", Value: a.RevenueBase, Kind: KindMoney},
				{Name: "g_rev", Label: "Revenue Growth %", Value: a.RevenueGrowth, Kind: KindPercent},
				{Name: "EBITDA_m", Label: "EBITDA Margin %", Value: a.EBITDAMargin, Kind: KindPercent},
				{Name: "DA_pct", Label: "D&A % of Revenue", Value: a.DAPctRevenue, Kind: KindPercent},
				{Name: "Capex_pct", Label: "CapEx % of Revenue", Value: a.CapexPctRevenue, Kind: KindPercent},
				{Name: "NWC_pct", Label: "NWC % of Revenue", Value: a.NWCPctRevenue, Kind: KindPercent},
				{Name: "TaxRate", Label: "Tax Rate %", Value: a.TaxRate, Kind: KindPercent},
			},
		},
		{
			Title: "Purchase / Transaction Assumptions",
			Entries: []Entry{
				{Name: "EntryEV", Label: "Entry Enterprise Value", Value: a.EntryEV, Kind: KindMoney},
				{Name: "DebtBank_pct", Label: "Bank Debt %", Value: a.DebtBankPct, Kind: KindPercent},
				{Name: "DebtMezz_pct", Label: "Mezzanine Debt %", Value: a.DebtMezzPct, Kind: KindPercent},
				{Name: "Equity_pct", Label: "Sponsor Equity %", Value: a.EquityPct, Kind: KindPercent},
				{Name: "InterestBank", Label: "Bank Interest Rate", Value: a.InterestBank, Kind: KindPercent},
				{Name: "InterestMezz", Label: "Mezzanine Interest Rate", Value: a.InterestMezz, Kind: KindPercent},
				{Name: "TxFees", Label: "Transaction Fees", Value: a.TxFees, Kind: KindMoney},
				{Name: "ExitMultiple", Label: "Exit Multiple (EV/EBITDA)", Value: a.ExitMultiple, Kind: KindMultiple},
			},
		},
	}
	return newRegistry(a.HoldPeriodYears, sections)
}

// NewDCFRegistry validates the operating set and the DCF extension and lays
// out the five DCF assumption sections. CoE, after-tax CoD and WACC appear
// as derived rows; the tab writer emits them as formulas so the workbook
// recomputes when an input cell changes.
func NewDCFRegistry(a CompanyAssumptions, d DCFAssumptions) (*Registry, error) {
	if err := a.ValidateOperating(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.TerminalMethod == TerminalExitMultiple && a.ExitMultiple <= 0 {
		return nil, &InvalidAssumptionError{Field: "exit_multiple", Reason: fmt.Sprintf("must be positive for the exit-multiple method, got %g", a.ExitMultiple)}
	}
	sections := []Section{
		{
			Title: "Timing / Horizon",
			Entries: []Entry{
				{Name: "BaseYear", Label: "Base Year", Value: float64(a.BaseYear), Kind: KindYear},
				{Name: "Horizon", Label: "Forecast Horizon (Years)", Value: float64(a.HoldPeriodYears), Kind: KindYear},
				{Label: "Terminal Value Method", Text: string(d.TerminalMethod), Kind: KindText},
			},
		},
		{
			Title: "Operating Drivers",
			Entries: []Entry{
				{Name: "Rev0", Label: "Revenue (Base Year)", Value: a.RevenueBase, Kind: KindMoney},
				{Name: "g_rev", Label: "Revenue Growth %", Value: a.RevenueGrowth, Kind: KindPercent},
				{Name: "EBITDA_m", Label: "EBITDA Margin %", Value: a.EBITDAMargin, Kind: KindPercent},
				{Name: "DA_pct", Label: "D&A % of Revenue", Value: a.DAPctRevenue, Kind: KindPercent},
				{Name: "Capex_pct", Label: "CapEx % of Revenue", Value: a.CapexPctRevenue, Kind: KindPercent},
				{Name: "NWC_pct", Label: "NWC % of Revenue", Value: a.NWCPctRevenue, Kind: KindPercent},
				{Name: "TaxRate", Label: "Tax Rate %", Value: a.TaxRate, Kind: KindPercent},
			},
		},
		{
			Title: "Capital Structure & WACC",
			Entries: []Entry{
				{Name: "Rf", Label: "Risk-Free Rate", Value: d.RiskFreeRate, Kind: KindPercent},
				{Name: "ERP", Label: "Equity Risk Premium", Value: d.EquityRiskPremium, Kind: KindPercent},
				{Name: "Beta", Label: "Beta (Levered)", Value: d.Beta, Kind: KindNumber},
				{Name: "CoE", Label: "Cost of Equity (CAPM)", Kind: KindPercent, Derived: true},
				{Name: "CoD_pre", Label: "Pre-Tax Cost of Debt", Value: d.PreTaxCostOfDebt, Kind: KindPercent},
				{Name: "Wd", Label: "Debt Weight (D/(D+E))", Value: d.DebtWeight, Kind: KindPercent},
				{Name: "CoD_at", Label: "After-Tax Cost of Debt", Kind: KindPercent, Derived: true},
				{Name: "WACC", Label: "WACC", Kind: KindPercent, Derived: true},
			},
		},
		{
			Title: "Terminal Value",
			Entries: []Entry{
				{Name: "g_term", Label: "Terminal Growth Rate", Value: d.TerminalGrowth, Kind: KindPercent},
				{Name: "ExitMultiple", Label: "Exit Multiple (EV/EBITDA)", Value: a.ExitMultiple, Kind: KindMultiple},
			},
		},
		{
			Title: "Valuation Bridge",
			Entries: []Entry{
				{Name: "NetDebt", Label: "Net Debt", Value: d.NetDebt, Kind: KindMoney},
				{Name: "OtherAdj", Label: "Other Adjustments", Value: d.OtherAdjustments, Kind: KindMoney},
				{Name: "Shares", Label: "Diluted Shares Outstanding", Value: d.SharesOutstanding, Kind: KindNumber},
			},
		},
	}
	return newRegistry(a.HoldPeriodYears, sections)
}

// Years returns the forecast horizon.
func (r *Registry) Years() int { return r.years }

// Sections returns the ordered sections. The slice is a copy; entries are
// values.
func (r *Registry) Sections() []Section {
	out := make([]Section, len(r.sections))
	for i, s := range r.sections {
		entries := make([]Entry, len(s.Entries))
		copy(entries, s.Entries)
		out[i] = Section{Title: s.Title, Entries: entries}
	}
	return out
}

// Names returns every named entry in tab order.
func (r *Registry) Names() []string {
	var names []string
	for _, s := range r.sections {
		for _, e := range s.Entries {
			if e.Name != "" {
				names = append(names, e.Name)
			}
		}
	}
	return names
}

// Value returns the value of a named input entry. Derived entries and
// unknown names report false.
func (r *Registry) Value(name string) (float64, bool) {
	e, ok := r.byName[name]
	if !ok || e.Derived {
		return 0, false
	}
	return e.Value, true
}
