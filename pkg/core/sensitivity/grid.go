// Package sensitivity builds two-dimensional what-if grids of an output
// metric over a pair of driver axes.
package sensitivity

import (
	"fmt"
	"math"

	"finmodel/pkg/core/assumption"
)

// Metric computes one grid cell from a (row, column) axis pair.
type Metric func(rowValue, colValue float64) float64

// Grid is a len(RowValues) x len(ColValues) table. Axis values keep the
// caller-supplied order; no sorting is imposed.
type Grid struct {
	RowLabel  string
	ColLabel  string
	RowValues []float64
	ColValues []float64
	Cells     [][]float64

	// Note is surfaced next to the grid wherever it is displayed, so a
	// simplified metric is never mistaken for the cash-flow IRR.
	Note string
}

// Build evaluates metric over the cross product of the axes.
func Build(rowValues, colValues []float64, metric Metric) (*Grid, error) {
	if len(rowValues) == 0 || len(colValues) == 0 {
		return nil, fmt.Errorf("sensitivity: empty axis (%d x %d)", len(rowValues), len(colValues))
	}
	if metric == nil {
		return nil, fmt.Errorf("sensitivity: nil metric")
	}

	g := &Grid{
		RowValues: append([]float64(nil), rowValues...),
		ColValues: append([]float64(nil), colValues...),
		Cells:     make([][]float64, len(rowValues)),
	}
	for i, rv := range rowValues {
		g.Cells[i] = make([]float64, len(colValues))
		for j, cv := range colValues {
			g.Cells[i][j] = metric(rv, cv)
		}
	}
	return g, nil
}

// ApproxIRR returns the simplified multiple-expansion heuristic
// (exit/entry)^(1/years) - 1. It ignores leverage and interim cash flows
// entirely; it exists for fast grid scans and is distinct from the
// cash-flow IRR of the returns analysis.
func ApproxIRR(years int) Metric {
	n := float64(years)
	return func(entry, exit float64) float64 {
		if entry <= 0 || exit <= 0 {
			return math.NaN()
		}
		return math.Pow(exit/entry, 1/n) - 1
	}
}

// EntryExitNote is the disclaimer written beside every ApproxIRR grid.
const EntryExitNote = "Simplified IRR: (exit/entry)^(1/N)-1, ignores leverage and interim cash flows"

// DefaultEntryExitGrid builds the 3x3 entry-multiple vs exit-multiple grid
// around a run's own pricing: the implied entry multiple
// (EntryEV / base-year EBITDA) stepped by half a turn, the exit multiple
// stepped by a full turn.
func DefaultEntryExitGrid(a assumption.CompanyAssumptions) (*Grid, error) {
	baseEBITDA := a.RevenueBase * a.EBITDAMargin
	if baseEBITDA <= 0 {
		return nil, fmt.Errorf("sensitivity: base-year EBITDA is %g, cannot imply an entry multiple", baseEBITDA)
	}
	entry := a.EntryEV / baseEBITDA

	rows := []float64{entry - 0.5, entry, entry + 0.5}
	cols := []float64{a.ExitMultiple - 1.0, a.ExitMultiple, a.ExitMultiple + 1.0}
	g, err := Build(rows, cols, ApproxIRR(a.HoldPeriodYears))
	if err != nil {
		return nil, err
	}
	g.RowLabel = "Entry Multiple"
	g.ColLabel = "Exit Multiple"
	g.Note = EntryExitNote
	return g, nil
}
