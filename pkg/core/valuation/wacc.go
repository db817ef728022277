// Package valuation computes the discounting math behind a DCF run: the
// CAPM cost-of-capital build and the two-stage present-value rollup whose
// numbers the DCF tab reproduces cell for cell.
package valuation

import (
	"fmt"

	"finmodel/pkg/core/assumption"
)

// WACCResult holds the cost-of-capital build in the order the Assumptions
// tab presents it.
type WACCResult struct {
	CostOfEquity       float64
	PreTaxCostOfDebt   float64
	AfterTaxCostOfDebt float64
	WeightDebt         float64
	WeightEquity       float64
	WACC               float64
}

// BuildWACC computes the blended discount rate from the CAPM inputs and the
// target capital structure.
func BuildWACC(op assumption.CompanyAssumptions, d assumption.DCFAssumptions) (WACCResult, error) {
	// 1. Cost of Equity (CAPM)
	// Ke = Rf + Beta * ERP
	ke := d.RiskFreeRate + d.Beta*d.EquityRiskPremium

	// 2. Cost of Debt (After-tax)
	// Kd = PreTaxKd * (1 - t)
	kd := d.PreTaxCostOfDebt * (1 - op.TaxRate)

	// Equity must price above debt; the reverse means the CAPM inputs and
	// the credit inputs describe two different companies.
	if ke <= kd {
		return WACCResult{}, &assumption.InvalidAssumptionError{
			Field:  "cost_of_equity",
			Reason: fmt.Sprintf("CAPM cost of equity %.4f must exceed after-tax cost of debt %.4f", ke, kd),
		}
	}

	// 3. Blend at the target weights
	// WACC = Wd*Kd + We*Ke
	wd := d.DebtWeight
	we := 1 - wd
	wacc := wd*kd + we*ke

	return WACCResult{
		CostOfEquity:       ke,
		PreTaxCostOfDebt:   d.PreTaxCostOfDebt,
		AfterTaxCostOfDebt: kd,
		WeightDebt:         wd,
		WeightEquity:       we,
		WACC:               wacc,
	}, nil
}
