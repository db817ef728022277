package sensitivity

import (
	"math"
	"testing"

	"finmodel/pkg/core/assumption"
)

func almostEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-6*scale
}

func TestApproxIRR(t *testing.T) {
	m := ApproxIRR(5)

	if got := m(8, 8); !almostEqual(got, 0) {
		t.Errorf("flat multiple should return 0, got %v", got)
	}
	// Doubling every year: 32x over 5 years.
	if got := m(1, 32); !almostEqual(got, 1.0) {
		t.Errorf("32x over 5 years = %v, want 1.0", got)
	}
	if got := m(0, 8); !math.IsNaN(got) {
		t.Errorf("non-positive entry should return NaN, got %v", got)
	}
}

func TestBuildShapeAndMonotonicity(t *testing.T) {
	rows := []float64{6.7, 7.2, 7.7}
	cols := []float64{7.5, 8.5, 9.5}
	g, err := Build(rows, cols, ApproxIRR(5))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(g.Cells) != 3 {
		t.Fatalf("rows = %d, want 3", len(g.Cells))
	}
	for i := range g.Cells {
		if len(g.Cells[i]) != 3 {
			t.Fatalf("row %d cols = %d, want 3", i, len(g.Cells[i]))
		}
	}

	// For a fixed entry multiple the heuristic rises with the exit multiple.
	for i := range g.Cells {
		for j := 1; j < len(g.Cells[i]); j++ {
			if g.Cells[i][j] <= g.Cells[i][j-1] {
				t.Errorf("cell[%d][%d] = %v not above cell[%d][%d] = %v", i, j, g.Cells[i][j], i, j-1, g.Cells[i][j-1])
			}
		}
	}

	if !almostEqual(g.Cells[1][1], math.Pow(8.5/7.2, 0.2)-1) {
		t.Errorf("center cell = %v, want %v", g.Cells[1][1], math.Pow(8.5/7.2, 0.2)-1)
	}
}

func TestBuildKeepsCallerOrder(t *testing.T) {
	// Descending axis must stay descending.
	rows := []float64{9, 8, 7}
	cols := []float64{12, 10}
	g, err := Build(rows, cols, func(r, c float64) float64 { return c / r })
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.RowValues[0] != 9 || g.RowValues[2] != 7 {
		t.Errorf("RowValues reordered: %v", g.RowValues)
	}
	if !almostEqual(g.Cells[0][0], 12.0/9) || !almostEqual(g.Cells[2][1], 10.0/7) {
		t.Errorf("cells do not follow caller axis order: %v", g.Cells)
	}
}

func TestBuildRejectsEmptyAxis(t *testing.T) {
	if _, err := Build(nil, []float64{1}, ApproxIRR(5)); err == nil {
		t.Fatal("expected error for empty row axis")
	}
	if _, err := Build([]float64{1}, []float64{1}, nil); err == nil {
		t.Fatal("expected error for nil metric")
	}
}

func TestDefaultEntryExitGrid(t *testing.T) {
	g, err := DefaultEntryExitGrid(assumption.DefaultLBO())
	if err != nil {
		t.Fatalf("DefaultEntryExitGrid: %v", err)
	}

	// Implied entry multiple: 45000 / (25000 * 0.25) = 7.2.
	wantRows := []float64{6.7, 7.2, 7.7}
	wantCols := []float64{7.5, 8.5, 9.5}
	for i, want := range wantRows {
		if !almostEqual(g.RowValues[i], want) {
			t.Errorf("RowValues[%d] = %v, want %v", i, g.RowValues[i], want)
		}
	}
	for j, want := range wantCols {
		if !almostEqual(g.ColValues[j], want) {
			t.Errorf("ColValues[%d] = %v, want %v", j, g.ColValues[j], want)
		}
	}
	if g.Note != EntryExitNote {
		t.Errorf("Note = %q, want the heuristic disclaimer", g.Note)
	}
	if g.RowLabel != "Entry Multiple" || g.ColLabel != "Exit Multiple" {
		t.Errorf("axis labels = %q, %q", g.RowLabel, g.ColLabel)
	}
}
