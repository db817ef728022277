package valuation

import (
	"math"
	"testing"

	"finmodel/pkg/core/assumption"
)

func TestPriceGrid(t *testing.T) {
	grid, err := PriceGrid(defaultDCFInput(t))
	if err != nil {
		t.Fatalf("PriceGrid: %v", err)
	}

	if len(grid.Cells) != 5 || len(grid.Cells[0]) != 6 {
		t.Fatalf("grid shape = %dx%d, want 5x6", len(grid.Cells), len(grid.Cells[0]))
	}
	for i, row := range grid.Cells {
		for j, v := range row {
			if math.IsNaN(v) || v <= 0 {
				t.Errorf("cell [%d][%d] = %v, want positive", i, j, v)
			}
		}
	}

	// Price falls as WACC rises and rises with terminal growth.
	for j := range grid.ColValues {
		if grid.Cells[0][j] <= grid.Cells[4][j] {
			t.Errorf("col %d: price at 6%% WACC (%v) should exceed price at 14%% (%v)", j, grid.Cells[0][j], grid.Cells[4][j])
		}
	}
	for i := range grid.RowValues {
		if grid.Cells[i][0] >= grid.Cells[i][5] {
			t.Errorf("row %d: price at g=1%% (%v) should trail price at g=3.5%% (%v)", i, grid.Cells[i][0], grid.Cells[i][5])
		}
	}

	// The center cell is a full recomputation at that axis pair.
	in := defaultDCFInput(t)
	in.WACC = 0.10
	in.TerminalGrowth = 0.025
	in.TerminalMethod = assumption.TerminalPerpetuity
	res, err := CalculateDCF(in)
	if err != nil {
		t.Fatalf("CalculateDCF: %v", err)
	}
	if !almostEqual(grid.Cells[2][3], res.ImpliedSharePrice) {
		t.Errorf("center cell = %v, want %v", grid.Cells[2][3], res.ImpliedSharePrice)
	}
}

func TestEquityGrid(t *testing.T) {
	grid, err := EquityGrid(defaultDCFInput(t))
	if err != nil {
		t.Fatalf("EquityGrid: %v", err)
	}

	if len(grid.Cells) != 5 || len(grid.Cells[0]) != 5 {
		t.Fatalf("grid shape = %dx%d, want 5x5", len(grid.Cells), len(grid.Cells[0]))
	}

	// Equity value rises with the exit multiple and falls as WACC rises.
	for i := range grid.RowValues {
		for j := 1; j < len(grid.ColValues); j++ {
			if grid.Cells[i][j] <= grid.Cells[i][j-1] {
				t.Errorf("row %d: cells not increasing across exit multiples: %v", i, grid.Cells[i])
			}
		}
	}
	for j := range grid.ColValues {
		if grid.Cells[0][j] <= grid.Cells[4][j] {
			t.Errorf("col %d: equity at 6%% WACC (%v) should exceed equity at 14%% (%v)", j, grid.Cells[0][j], grid.Cells[4][j])
		}
	}
}
