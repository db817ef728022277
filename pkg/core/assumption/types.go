// Package assumption holds the validated inputs for one model run. A run's
// assumptions are constructed once, validated up front, and never mutated;
// a new scenario is a new value.
package assumption

// =============================================================================
// OPERATING / TRANSACTION ASSUMPTIONS
// =============================================================================

// CompanyAssumptions is the complete scalar input set for an LBO run and the
// operating core of a DCF run. Rates are decimal fractions (0.08 = 8%),
// money fields share one currency unit throughout a workbook.
type CompanyAssumptions struct {
	BaseYear int `json:"base_year" yaml:"base_year"`

	// Operating drivers
	RevenueBase     float64 `json:"revenue_base" yaml:"revenue_base"`
	RevenueGrowth   float64 `json:"revenue_growth" yaml:"revenue_growth"`
	EBITDAMargin    float64 `json:"ebitda_margin" yaml:"ebitda_margin"`
	DAPctRevenue    float64 `json:"da_pct_revenue" yaml:"da_pct_revenue"`
	CapexPctRevenue float64 `json:"capex_pct_revenue" yaml:"capex_pct_revenue"`
	NWCPctRevenue   float64 `json:"nwc_pct_revenue" yaml:"nwc_pct_revenue"`
	TaxRate         float64 `json:"tax_rate" yaml:"tax_rate"`

	// Purchase and capital structure
	EntryEV      float64 `json:"entry_ev" yaml:"entry_ev"`
	DebtBankPct  float64 `json:"debt_bank_pct" yaml:"debt_bank_pct"`
	DebtMezzPct  float64 `json:"debt_mezz_pct" yaml:"debt_mezz_pct"`
	EquityPct    float64 `json:"equity_pct" yaml:"equity_pct"`
	InterestBank float64 `json:"interest_bank" yaml:"interest_bank"`
	InterestMezz float64 `json:"interest_mezz" yaml:"interest_mezz"`
	TxFees       float64 `json:"tx_fees" yaml:"tx_fees"`

	// Exit
	ExitMultiple    float64 `json:"exit_multiple" yaml:"exit_multiple"`
	HoldPeriodYears int     `json:"hold_period_years" yaml:"hold_period_years"`
}

// BankDraw returns the bank tranche's initial balance at close.
func (a CompanyAssumptions) BankDraw() float64 { return a.EntryEV * a.DebtBankPct }

// MezzDraw returns the mezzanine tranche's initial balance at close.
func (a CompanyAssumptions) MezzDraw() float64 { return a.EntryEV * a.DebtMezzPct }

// EquityInvested returns the sponsor equity check funding the purchase
// price. Transaction fees are funded on top of it, not inside it.
func (a CompanyAssumptions) EquityInvested() float64 { return a.EntryEV * a.EquityPct }

// DefaultLBO returns the standard mid-market LBO profile used by the demo
// command and as the base the document loader overlays.
func DefaultLBO() CompanyAssumptions {
	return CompanyAssumptions{
		BaseYear:        2024,
		RevenueBase:     25000,
		RevenueGrowth:   0.08,
		EBITDAMargin:    0.25,
		DAPctRevenue:    0.05,
		CapexPctRevenue: 0.08,
		NWCPctRevenue:   0.15,
		TaxRate:         0.25,
		EntryEV:         45000,
		DebtBankPct:     0.60,
		DebtMezzPct:     0.15,
		EquityPct:       0.25,
		InterestBank:    0.06,
		InterestMezz:    0.10,
		TxFees:          1500,
		ExitMultiple:    8.5,
		HoldPeriodYears: 5,
	}
}

// DefaultDCFOperating returns the small-cap operating profile the DCF demo
// uses. Purchase fields are zeroed; a DCF run never reads them.
func DefaultDCFOperating() CompanyAssumptions {
	return CompanyAssumptions{
		BaseYear:        2024,
		RevenueBase:     1000,
		RevenueGrowth:   0.08,
		EBITDAMargin:    0.25,
		DAPctRevenue:    0.05,
		CapexPctRevenue: 0.08,
		NWCPctRevenue:   0.15,
		TaxRate:         0.25,
		ExitMultiple:    10.0,
		HoldPeriodYears: 6,
	}
}

// =============================================================================
// DCF EXTENSION
// =============================================================================

// TerminalMethod selects how terminal value is computed.
type TerminalMethod string

const (
	TerminalPerpetuity   TerminalMethod = "perpetuity"
	TerminalExitMultiple TerminalMethod = "exit_multiple"
)

// DCFAssumptions extends CompanyAssumptions with the discounting inputs a
// DCF run needs on top of the operating drivers.
type DCFAssumptions struct {
	RiskFreeRate      float64        `json:"risk_free_rate" yaml:"risk_free_rate"`
	EquityRiskPremium float64        `json:"equity_risk_premium" yaml:"equity_risk_premium"`
	Beta              float64        `json:"beta" yaml:"beta"`
	PreTaxCostOfDebt  float64        `json:"pre_tax_cost_of_debt" yaml:"pre_tax_cost_of_debt"`
	DebtWeight        float64        `json:"debt_weight" yaml:"debt_weight"`
	TerminalGrowth    float64        `json:"terminal_growth" yaml:"terminal_growth"`
	TerminalMethod    TerminalMethod `json:"terminal_method" yaml:"terminal_method"`
	MidYearConvention bool           `json:"mid_year_convention" yaml:"mid_year_convention"`
	NetDebt           float64        `json:"net_debt" yaml:"net_debt"`
	OtherAdjustments  float64        `json:"other_adjustments" yaml:"other_adjustments"`

	// Millions, same scale as the money fields.
	SharesOutstanding float64 `json:"shares_outstanding" yaml:"shares_outstanding"`
}

// DefaultDCF returns the discounting profile paired with
// DefaultDCFOperating.
func DefaultDCF() DCFAssumptions {
	return DCFAssumptions{
		RiskFreeRate:      0.045,
		EquityRiskPremium: 0.060,
		Beta:              1.20,
		PreTaxCostOfDebt:  0.055,
		DebtWeight:        0.40,
		TerminalGrowth:    0.025,
		TerminalMethod:    TerminalPerpetuity,
		MidYearConvention: true,
		NetDebt:           200,
		OtherAdjustments:  0,
		SharesOutstanding: 50,
	}
}
