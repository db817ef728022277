package valuation

import (
	"fmt"
	"math"

	"finmodel/pkg/core/assumption"
)

// DCFInput bundles the forecast outputs with the discounting assumptions.
// UFCF index i is forecast year i+1.
type DCFInput struct {
	UFCF           []float64
	TerminalEBITDA float64

	WACC           float64
	TerminalGrowth float64
	TerminalMethod assumption.TerminalMethod
	ExitMultiple   float64
	MidYear        bool

	NetDebt           float64
	OtherAdjustments  float64
	SharesOutstanding float64
}

// DCFResult mirrors the DCF tab block by block: the discounting rows, both
// terminal value variants with the selected one carried forward, and the
// enterprise-to-equity bridge.
type DCFResult struct {
	Periods         []float64
	DiscountFactors []float64
	PV              []float64
	SumPVUFCF       float64

	TVPerpetuity   float64
	TVExitMultiple float64
	TerminalValue  float64
	PVTerminal     float64

	EnterpriseValue   float64
	EquityValue       float64
	ImpliedSharePrice float64
}

// CalculateDCF performs a standard 2-stage DCF. Under the mid-year
// convention year 1 discounts at t=0.5 and each later year adds one; the
// terminal value discounts at the final year's factor either way.
func CalculateDCF(input DCFInput) (DCFResult, error) {
	n := len(input.UFCF)
	if n == 0 {
		return DCFResult{}, fmt.Errorf("dcf: empty forecast")
	}
	if input.TerminalMethod == assumption.TerminalPerpetuity && input.TerminalGrowth >= input.WACC {
		return DCFResult{}, &assumption.InvalidAssumptionError{
			Field:  "terminal_growth",
			Reason: fmt.Sprintf("must stay below WACC %.4f for a perpetuity terminal value, got %g", input.WACC, input.TerminalGrowth),
		}
	}

	res := DCFResult{
		Periods:         make([]float64, n),
		DiscountFactors: make([]float64, n),
		PV:              make([]float64, n),
	}

	// 1. Discounting block
	t := 1.0
	if input.MidYear {
		t = 0.5
	}
	for i := 0; i < n; i++ {
		factor := 1 / math.Pow(1+input.WACC, t)
		res.Periods[i] = t
		res.DiscountFactors[i] = factor
		res.PV[i] = input.UFCF[i] * factor
		res.SumPVUFCF += res.PV[i]
		t++
	}

	// 2. Terminal value, both variants. The unselected one is reported for
	// the workbook's side-by-side rows; only the selected one rolls forward.
	if input.WACC > input.TerminalGrowth {
		res.TVPerpetuity = input.UFCF[n-1] * (1 + input.TerminalGrowth) / (input.WACC - input.TerminalGrowth)
	}
	res.TVExitMultiple = input.TerminalEBITDA * input.ExitMultiple
	switch input.TerminalMethod {
	case assumption.TerminalExitMultiple:
		res.TerminalValue = res.TVExitMultiple
	default:
		res.TerminalValue = res.TVPerpetuity
	}
	res.PVTerminal = res.TerminalValue * res.DiscountFactors[n-1]

	// 3. Enterprise-to-equity bridge
	res.EnterpriseValue = res.SumPVUFCF + res.PVTerminal
	res.EquityValue = res.EnterpriseValue - input.NetDebt + input.OtherAdjustments
	res.ImpliedSharePrice = res.EquityValue / input.SharesOutstanding

	return res, nil
}
