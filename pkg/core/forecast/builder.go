// Package forecast projects the operating model from the base year out to
// the hold period: revenue down to unlevered free cash flow, one value per
// forecast year. The table is built once per run and read by the debt
// waterfall, the returns analysis, and the workbook writers.
package forecast

import (
	"fmt"

	"finmodel/pkg/core/assumption"
)

// Table holds one metric per row and one forecast year per column.
// Index i is year i+1; the base year lives only in RevenueBase.
type Table struct {
	Years       int
	RevenueBase float64

	Revenue  []float64
	EBITDA   []float64
	DA       []float64
	EBIT     []float64
	Taxes    []float64
	NOPAT    []float64
	Capex    []float64
	DeltaNWC []float64
	UFCF     []float64
}

// Build projects N = holdPeriodYears forecast years.
//
// Revenue chains off the prior year; everything else is a ratio of the
// current year's revenue. Taxes follow EBIT unclamped, so a loss year shows
// a tax credit rather than silently flooring at zero. UFCF is
// NOPAT + D&A - CapEx - change in NWC.
func Build(a assumption.CompanyAssumptions) (*Table, error) {
	if a.HoldPeriodYears < 1 {
		return nil, &assumption.InvalidAssumptionError{
			Field:  "hold_period_years",
			Reason: fmt.Sprintf("must be >= 1, got %d", a.HoldPeriodYears),
		}
	}

	n := a.HoldPeriodYears
	t := &Table{
		Years:       n,
		RevenueBase: a.RevenueBase,
		Revenue:     make([]float64, n),
		EBITDA:      make([]float64, n),
		DA:          make([]float64, n),
		EBIT:        make([]float64, n),
		Taxes:       make([]float64, n),
		NOPAT:       make([]float64, n),
		Capex:       make([]float64, n),
		DeltaNWC:    make([]float64, n),
		UFCF:        make([]float64, n),
	}

	prevRevenue := a.RevenueBase
	for i := 0; i < n; i++ {
		revenue := prevRevenue * (1 + a.RevenueGrowth)
		ebitda := revenue * a.EBITDAMargin
		da := revenue * a.DAPctRevenue
		ebit := ebitda - da
		taxes := ebit * a.TaxRate
		nopat := ebit - taxes
		capex := revenue * a.CapexPctRevenue
		deltaNWC := (revenue - prevRevenue) * a.NWCPctRevenue

		t.Revenue[i] = revenue
		t.EBITDA[i] = ebitda
		t.DA[i] = da
		t.EBIT[i] = ebit
		t.Taxes[i] = taxes
		t.NOPAT[i] = nopat
		t.Capex[i] = capex
		t.DeltaNWC[i] = deltaNWC
		t.UFCF[i] = nopat + da - capex - deltaNWC

		prevRevenue = revenue
	}
	return t, nil
}

// TerminalEBITDA returns the final forecast year's EBITDA, the base of the
// exit valuation.
func (t *Table) TerminalEBITDA() float64 {
	return t.EBITDA[t.Years-1]
}

// TerminalUFCF returns the final forecast year's unlevered free cash flow,
// the base of a perpetuity terminal value.
func (t *Table) TerminalUFCF() float64 {
	return t.UFCF[t.Years-1]
}
