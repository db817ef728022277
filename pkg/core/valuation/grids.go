package valuation

import (
	"math"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/sensitivity"
)

// Standard sensitivity axes. WACC spans two points either side of a 10%
// center, terminal growth runs half-point steps to 3.5%, exit multiples
// step by two turns.
func DefaultWACCAxis() []float64   { return []float64{0.06, 0.08, 0.10, 0.12, 0.14} }
func DefaultGrowthAxis() []float64 { return []float64{0.010, 0.015, 0.020, 0.025, 0.030, 0.035} }
func DefaultExitAxis() []float64   { return []float64{6, 8, 10, 12, 14} }

// PriceGrid recomputes the full DCF per cell over WACC and terminal growth
// and reports the implied share price. The perpetuity method is forced so
// the growth axis actually moves the answer; a cell whose growth rate
// reaches its WACC has no finite perpetuity and reports NaN.
func PriceGrid(base DCFInput) (*sensitivity.Grid, error) {
	metric := func(wacc, g float64) float64 {
		in := base
		in.WACC = wacc
		in.TerminalGrowth = g
		in.TerminalMethod = assumption.TerminalPerpetuity
		res, err := CalculateDCF(in)
		if err != nil {
			return math.NaN()
		}
		return res.ImpliedSharePrice
	}
	grid, err := sensitivity.Build(DefaultWACCAxis(), DefaultGrowthAxis(), metric)
	if err != nil {
		return nil, err
	}
	grid.RowLabel = "WACC"
	grid.ColLabel = "Terminal Growth"
	return grid, nil
}

// EquityGrid recomputes the full DCF per cell over WACC and exit multiple
// and reports the equity value. The exit-multiple method is forced for the
// same reason PriceGrid forces perpetuity.
func EquityGrid(base DCFInput) (*sensitivity.Grid, error) {
	metric := func(wacc, mult float64) float64 {
		in := base
		in.WACC = wacc
		in.ExitMultiple = mult
		in.TerminalMethod = assumption.TerminalExitMultiple
		res, err := CalculateDCF(in)
		if err != nil {
			return math.NaN()
		}
		return res.EquityValue
	}
	grid, err := sensitivity.Build(DefaultWACCAxis(), DefaultExitAxis(), metric)
	if err != nil {
		return nil, err
	}
	grid.RowLabel = "WACC"
	grid.ColLabel = "Exit Multiple"
	return grid, nil
}
