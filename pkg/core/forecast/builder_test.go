package forecast

import (
	"errors"
	"math"
	"testing"

	"finmodel/pkg/core/assumption"
)

func almostEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-6*scale
}

func TestBuildStandardScenario(t *testing.T) {
	table, err := Build(assumption.DefaultLBO())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if table.Years != 5 {
		t.Fatalf("Years = %d, want 5", table.Years)
	}

	wantRevenue := []float64{27000, 29160, 31492.8, 34012.224, 36733.20192}
	for i, want := range wantRevenue {
		if !almostEqual(table.Revenue[i], want) {
			t.Errorf("Revenue[%d] = %v, want %v", i, table.Revenue[i], want)
		}
	}

	wantUFCF := []float64{2940, 3175.2, 3429.216, 3703.55328, 3999.8375424}
	for i, want := range wantUFCF {
		if !almostEqual(table.UFCF[i], want) {
			t.Errorf("UFCF[%d] = %v, want %v", i, table.UFCF[i], want)
		}
		if table.UFCF[i] <= 0 {
			t.Errorf("UFCF[%d] = %v, want positive", i, table.UFCF[i])
		}
	}

	// Year 1 by hand: EBITDA 6750, D&A 1350, EBIT 5400, taxes 1350,
	// NOPAT 4050, CapEx 2160, dNWC 300.
	if !almostEqual(table.EBITDA[0], 6750) {
		t.Errorf("EBITDA[0] = %v, want 6750", table.EBITDA[0])
	}
	if !almostEqual(table.Taxes[0], 1350) {
		t.Errorf("Taxes[0] = %v, want 1350", table.Taxes[0])
	}
	if !almostEqual(table.DeltaNWC[0], 300) {
		t.Errorf("DeltaNWC[0] = %v, want 300", table.DeltaNWC[0])
	}

	if !almostEqual(table.TerminalEBITDA(), 9183.30048) {
		t.Errorf("TerminalEBITDA() = %v, want 9183.30048", table.TerminalEBITDA())
	}
}

func TestBuildIdentities(t *testing.T) {
	a := assumption.DefaultLBO()
	a.RevenueGrowth = 0.031
	a.HoldPeriodYears = 7

	table, err := Build(a)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prev := a.RevenueBase
	for i := 0; i < table.Years; i++ {
		if !almostEqual(table.Revenue[i], prev*(1+a.RevenueGrowth)) {
			t.Errorf("Revenue[%d] breaks the growth chain", i)
		}
		if !almostEqual(table.EBIT[i], table.EBITDA[i]-table.DA[i]) {
			t.Errorf("EBIT[%d] != EBITDA - D&A", i)
		}
		if !almostEqual(table.NOPAT[i], table.EBIT[i]-table.Taxes[i]) {
			t.Errorf("NOPAT[%d] != EBIT - taxes", i)
		}
		ufcf := table.NOPAT[i] + table.DA[i] - table.Capex[i] - table.DeltaNWC[i]
		if !almostEqual(table.UFCF[i], ufcf) {
			t.Errorf("UFCF[%d] != NOPAT + D&A - CapEx - dNWC", i)
		}
		prev = table.Revenue[i]
	}
}

func TestBuildTaxesNotClamped(t *testing.T) {
	a := assumption.DefaultLBO()
	a.EBITDAMargin = 0.04 // below D&A ratio, EBIT goes negative
	a.DAPctRevenue = 0.05

	table, err := Build(a)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < table.Years; i++ {
		if table.EBIT[i] >= 0 {
			t.Fatalf("EBIT[%d] = %v, fixture should produce a loss", i, table.EBIT[i])
		}
		if table.Taxes[i] >= 0 {
			t.Errorf("Taxes[%d] = %v, want a negative tax on a loss year", i, table.Taxes[i])
		}
		if !almostEqual(table.NOPAT[i], table.EBIT[i]-table.Taxes[i]) {
			t.Errorf("NOPAT[%d] inconsistent under a loss", i)
		}
	}
}

func TestBuildRejectsShortHorizon(t *testing.T) {
	a := assumption.DefaultLBO()
	a.HoldPeriodYears = 0

	_, err := Build(a)
	if err == nil {
		t.Fatal("expected error for hold period < 1")
	}
	var invalid *assumption.InvalidAssumptionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *InvalidAssumptionError", err)
	}
}
