package assumption

import (
	"fmt"
	"math"
)

// InvalidAssumptionError reports a malformed or out-of-range input field.
type InvalidAssumptionError struct {
	Field  string
	Reason string
}

func (e *InvalidAssumptionError) Error() string {
	return fmt.Sprintf("invalid assumption %s: %s", e.Field, e.Reason)
}

const weightTolerance = 1e-6

// ValidateOperating checks the fields every model type consumes.
func (a *CompanyAssumptions) ValidateOperating() error {
	if a.HoldPeriodYears < 1 {
		return &InvalidAssumptionError{Field: "hold_period_years", Reason: fmt.Sprintf("must be >= 1, got %d", a.HoldPeriodYears)}
	}
	if a.RevenueBase <= 0 {
		return &InvalidAssumptionError{Field: "revenue_base", Reason: fmt.Sprintf("must be positive, got %g", a.RevenueBase)}
	}
	if a.RevenueGrowth <= -1 {
		return &InvalidAssumptionError{Field: "revenue_growth", Reason: fmt.Sprintf("must exceed -100%%, got %g", a.RevenueGrowth)}
	}
	if a.EBITDAMargin <= 0 || a.EBITDAMargin > 1 {
		return &InvalidAssumptionError{Field: "ebitda_margin", Reason: fmt.Sprintf("must be in (0, 1], got %g", a.EBITDAMargin)}
	}
	ratios := []struct {
		field string
		value float64
	}{
		{"da_pct_revenue", a.DAPctRevenue},
		{"capex_pct_revenue", a.CapexPctRevenue},
		{"nwc_pct_revenue", a.NWCPctRevenue},
		{"tax_rate", a.TaxRate},
	}
	for _, r := range ratios {
		if r.value < 0 || r.value >= 1 {
			return &InvalidAssumptionError{Field: r.field, Reason: fmt.Sprintf("must be in [0, 1), got %g", r.value)}
		}
	}
	return nil
}

// ValidateLBO checks the full LBO input set: operating drivers plus purchase,
// leverage mix, pricing, and exit fields.
func (a *CompanyAssumptions) ValidateLBO() error {
	if err := a.ValidateOperating(); err != nil {
		return err
	}
	if a.EntryEV <= 0 {
		return &InvalidAssumptionError{Field: "entry_ev", Reason: fmt.Sprintf("must be positive, got %g", a.EntryEV)}
	}
	weights := []struct {
		field string
		value float64
	}{
		{"debt_bank_pct", a.DebtBankPct},
		{"debt_mezz_pct", a.DebtMezzPct},
		{"equity_pct", a.EquityPct},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			return &InvalidAssumptionError{Field: w.field, Reason: fmt.Sprintf("must be in [0, 1], got %g", w.value)}
		}
	}
	if sum := a.DebtBankPct + a.DebtMezzPct + a.EquityPct; math.Abs(sum-1) > weightTolerance {
		return &InvalidAssumptionError{Field: "leverage_mix", Reason: fmt.Sprintf("debt and equity weights sum to %g, want 1", sum)}
	}
	if a.InterestBank < 0 || a.InterestBank >= 1 {
		return &InvalidAssumptionError{Field: "interest_bank", Reason: fmt.Sprintf("must be in [0, 1), got %g", a.InterestBank)}
	}
	if a.InterestMezz < 0 || a.InterestMezz >= 1 {
		return &InvalidAssumptionError{Field: "interest_mezz", Reason: fmt.Sprintf("must be in [0, 1), got %g", a.InterestMezz)}
	}
	if a.TxFees < 0 {
		return &InvalidAssumptionError{Field: "tx_fees", Reason: fmt.Sprintf("must be >= 0, got %g", a.TxFees)}
	}
	if a.ExitMultiple <= 0 {
		return &InvalidAssumptionError{Field: "exit_multiple", Reason: fmt.Sprintf("must be positive, got %g", a.ExitMultiple)}
	}
	return nil
}

// Validate checks the DCF extension. Cross-field conditions that depend on
// the operating set (cost of equity above cost of debt, WACC above terminal
// growth) are enforced where WACC is built.
func (d *DCFAssumptions) Validate() error {
	if d.RiskFreeRate < 0 {
		return &InvalidAssumptionError{Field: "risk_free_rate", Reason: fmt.Sprintf("must be >= 0, got %g", d.RiskFreeRate)}
	}
	if d.EquityRiskPremium <= 0 {
		return &InvalidAssumptionError{Field: "equity_risk_premium", Reason: fmt.Sprintf("must be positive, got %g", d.EquityRiskPremium)}
	}
	if d.Beta <= 0 {
		return &InvalidAssumptionError{Field: "beta", Reason: fmt.Sprintf("must be positive, got %g", d.Beta)}
	}
	if d.PreTaxCostOfDebt < 0 || d.PreTaxCostOfDebt >= 1 {
		return &InvalidAssumptionError{Field: "pre_tax_cost_of_debt", Reason: fmt.Sprintf("must be in [0, 1), got %g", d.PreTaxCostOfDebt)}
	}
	if d.DebtWeight < 0 || d.DebtWeight >= 1 {
		return &InvalidAssumptionError{Field: "debt_weight", Reason: fmt.Sprintf("must be in [0, 1), got %g", d.DebtWeight)}
	}
	switch d.TerminalMethod {
	case TerminalPerpetuity, TerminalExitMultiple:
	default:
		return &InvalidAssumptionError{Field: "terminal_method", Reason: fmt.Sprintf("unknown method %q", d.TerminalMethod)}
	}
	if d.TerminalMethod == TerminalPerpetuity && d.TerminalGrowth < 0 {
		return &InvalidAssumptionError{Field: "terminal_growth", Reason: fmt.Sprintf("must be >= 0, got %g", d.TerminalGrowth)}
	}
	if d.SharesOutstanding <= 0 {
		return &InvalidAssumptionError{Field: "shares_outstanding", Reason: fmt.Sprintf("must be positive, got %g", d.SharesOutstanding)}
	}
	return nil
}
