package valuation

import (
	"errors"
	"math"
	"testing"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/forecast"
)

func defaultDCFInput(t *testing.T) DCFInput {
	t.Helper()
	op := assumption.DefaultDCFOperating()
	d := assumption.DefaultDCF()
	table, err := forecast.Build(op)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}
	w, err := BuildWACC(op, d)
	if err != nil {
		t.Fatalf("BuildWACC: %v", err)
	}
	return DCFInput{
		UFCF:              table.UFCF,
		TerminalEBITDA:    table.TerminalEBITDA(),
		WACC:              w.WACC,
		TerminalGrowth:    d.TerminalGrowth,
		TerminalMethod:    d.TerminalMethod,
		ExitMultiple:      op.ExitMultiple,
		MidYear:           d.MidYearConvention,
		NetDebt:           d.NetDebt,
		OtherAdjustments:  d.OtherAdjustments,
		SharesOutstanding: d.SharesOutstanding,
	}
}

func TestCalculateDCFDefaults(t *testing.T) {
	in := defaultDCFInput(t)
	res, err := CalculateDCF(in)
	if err != nil {
		t.Fatalf("CalculateDCF: %v", err)
	}

	if len(res.Periods) != 6 || len(res.DiscountFactors) != 6 || len(res.PV) != 6 {
		t.Fatalf("vector lengths = %d/%d/%d, want 6", len(res.Periods), len(res.DiscountFactors), len(res.PV))
	}

	// Mid-year: year 1 discounts at half a year, each later year adds one.
	if !almostEqual(res.Periods[0], 0.5) || !almostEqual(res.Periods[5], 5.5) {
		t.Errorf("Periods = %v, want 0.5 .. 5.5", res.Periods)
	}
	wantFactor := 1 / math.Pow(1+in.WACC, 2.5)
	if !almostEqual(res.DiscountFactors[2], wantFactor) {
		t.Errorf("DiscountFactors[2] = %v, want %v", res.DiscountFactors[2], wantFactor)
	}
	if !almostEqual(res.PV[2], in.UFCF[2]*res.DiscountFactors[2]) {
		t.Errorf("PV[2] = %v, want UFCF*factor = %v", res.PV[2], in.UFCF[2]*res.DiscountFactors[2])
	}
	var sum float64
	for _, pv := range res.PV {
		sum += pv
	}
	if !almostEqual(res.SumPVUFCF, sum) {
		t.Errorf("SumPVUFCF = %v, want %v", res.SumPVUFCF, sum)
	}

	wantPerp := in.UFCF[5] * (1 + in.TerminalGrowth) / (in.WACC - in.TerminalGrowth)
	if !almostEqual(res.TVPerpetuity, wantPerp) {
		t.Errorf("TVPerpetuity = %v, want %v", res.TVPerpetuity, wantPerp)
	}
	if !almostEqual(res.TVExitMultiple, in.TerminalEBITDA*in.ExitMultiple) {
		t.Errorf("TVExitMultiple = %v, want %v", res.TVExitMultiple, in.TerminalEBITDA*in.ExitMultiple)
	}
	if !almostEqual(res.TerminalValue, res.TVPerpetuity) {
		t.Errorf("TerminalValue = %v, want perpetuity variant %v", res.TerminalValue, res.TVPerpetuity)
	}
	if !almostEqual(res.PVTerminal, res.TerminalValue*res.DiscountFactors[5]) {
		t.Errorf("PVTerminal = %v, want %v", res.PVTerminal, res.TerminalValue*res.DiscountFactors[5])
	}

	if !almostEqual(res.EnterpriseValue, res.SumPVUFCF+res.PVTerminal) {
		t.Errorf("EnterpriseValue = %v, want %v", res.EnterpriseValue, res.SumPVUFCF+res.PVTerminal)
	}
	if !almostEqual(res.EquityValue, res.EnterpriseValue-200) {
		t.Errorf("EquityValue = %v, want EV-200 = %v", res.EquityValue, res.EnterpriseValue-200)
	}
	if !almostEqual(res.ImpliedSharePrice, res.EquityValue/50) {
		t.Errorf("ImpliedSharePrice = %v, want %v", res.ImpliedSharePrice, res.EquityValue/50)
	}

	// Order-of-magnitude sanity on the defaults.
	if res.EnterpriseValue < 2000 || res.EnterpriseValue > 3000 {
		t.Errorf("EnterpriseValue = %v, want within [2000, 3000]", res.EnterpriseValue)
	}
}

func TestCalculateDCFFullYearConvention(t *testing.T) {
	in := defaultDCFInput(t)
	mid, err := CalculateDCF(in)
	if err != nil {
		t.Fatalf("CalculateDCF mid-year: %v", err)
	}

	in.MidYear = false
	full, err := CalculateDCF(in)
	if err != nil {
		t.Fatalf("CalculateDCF full-year: %v", err)
	}

	if !almostEqual(full.Periods[0], 1) || !almostEqual(full.Periods[5], 6) {
		t.Errorf("Periods = %v, want 1 .. 6", full.Periods)
	}
	// Half a year less discounting lifts every present value.
	if mid.EnterpriseValue <= full.EnterpriseValue {
		t.Errorf("mid-year EV %v should exceed full-year EV %v", mid.EnterpriseValue, full.EnterpriseValue)
	}
	wantRatio := math.Pow(1+in.WACC, 0.5)
	if !almostEqual(mid.EnterpriseValue/full.EnterpriseValue, wantRatio) {
		t.Errorf("EV ratio = %v, want (1+WACC)^0.5 = %v", mid.EnterpriseValue/full.EnterpriseValue, wantRatio)
	}
}

func TestCalculateDCFExitMultipleMethod(t *testing.T) {
	in := defaultDCFInput(t)
	in.TerminalMethod = assumption.TerminalExitMultiple

	res, err := CalculateDCF(in)
	if err != nil {
		t.Fatalf("CalculateDCF: %v", err)
	}
	if !almostEqual(res.TerminalValue, res.TVExitMultiple) {
		t.Errorf("TerminalValue = %v, want exit-multiple variant %v", res.TerminalValue, res.TVExitMultiple)
	}
	// Growth above WACC is irrelevant under the exit-multiple method.
	in.TerminalGrowth = in.WACC + 0.01
	if _, err := CalculateDCF(in); err != nil {
		t.Fatalf("CalculateDCF with g above WACC under exit method: %v", err)
	}
}

func TestCalculateDCFPerpetuityGrowthGuard(t *testing.T) {
	in := defaultDCFInput(t)
	in.TerminalGrowth = in.WACC

	_, err := CalculateDCF(in)
	if err == nil {
		t.Fatal("expected error when terminal growth reaches WACC")
	}
	var invalid *assumption.InvalidAssumptionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *assumption.InvalidAssumptionError", err)
	}
	if invalid.Field != "terminal_growth" {
		t.Errorf("Field = %q, want %q", invalid.Field, "terminal_growth")
	}
}

func TestCalculateDCFEmptyForecast(t *testing.T) {
	if _, err := CalculateDCF(DCFInput{}); err == nil {
		t.Fatal("expected error for empty forecast")
	}
}
