package returns

import (
	"errors"
	"math"
	"testing"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/debt"
	"finmodel/pkg/core/forecast"
)

func analyze(t *testing.T, a assumption.CompanyAssumptions) *Result {
	t.Helper()
	table, err := forecast.Build(a)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}
	schedule, err := debt.Build(a, table.UFCF)
	if err != nil {
		t.Fatalf("debt.Build: %v", err)
	}
	res, err := Analyze(a, table, schedule)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestAnalyzeStandardScenario(t *testing.T) {
	res := analyze(t, assumption.DefaultLBO())

	if !almostEqual(res.EquityInvested, 11250) {
		t.Errorf("EquityInvested = %v, want 11250", res.EquityInvested)
	}
	if !almostEqual(res.InitialOutflow, 12750) {
		t.Errorf("InitialOutflow = %v, want 12750", res.InitialOutflow)
	}
	if !almostEqual(res.ExitEBITDA, 9183.30048) {
		t.Errorf("ExitEBITDA = %v, want 9183.30048", res.ExitEBITDA)
	}
	if !almostEqual(res.ExitEV, 78058.054080) {
		t.Errorf("ExitEV = %v, want 78058.054080", res.ExitEV)
	}
	if !almostEqual(res.NetDebtAtExit, 16502.1931776) {
		t.Errorf("NetDebtAtExit = %v, want 16502.1931776", res.NetDebtAtExit)
	}
	if !almostEqual(res.ExitEquityValue, 61555.8609024) {
		t.Errorf("ExitEquityValue = %v, want 61555.8609024", res.ExitEquityValue)
	}
	if !almostEqual(res.MOIC, 61555.8609024/11250) {
		t.Errorf("MOIC = %v, want %v", res.MOIC, 61555.8609024/11250)
	}

	if len(res.CashFlows) != 6 {
		t.Fatalf("CashFlows length = %d, want 6", len(res.CashFlows))
	}
	if !almostEqual(res.CashFlows[0], -12750) {
		t.Errorf("CashFlows[0] = %v, want -12750", res.CashFlows[0])
	}
	// The sweep absorbs all UFCF while bank debt is outstanding.
	for i := 1; i <= 4; i++ {
		if res.CashFlows[i] != 0 {
			t.Errorf("CashFlows[%d] = %v, want 0", i, res.CashFlows[i])
		}
	}
	if !almostEqual(res.CashFlows[5], 61555.8609024) {
		t.Errorf("CashFlows[5] = %v, want 61555.8609024", res.CashFlows[5])
	}

	if res.IRR < 0.10 || res.IRR > 0.40 {
		t.Errorf("IRR = %v, want within [0.10, 0.40]", res.IRR)
	}
	// With zero interim distributions the IRR has a closed form.
	want := math.Pow(61555.8609024/12750, 1.0/5) - 1
	if !almostEqual(res.IRR, want) {
		t.Errorf("IRR = %v, want %v", res.IRR, want)
	}

	if res.EquityWipedOut {
		t.Error("EquityWipedOut should be false")
	}
	if !res.BankOutstandingAtExit {
		t.Error("BankOutstandingAtExit should be true in this scenario")
	}
}

func TestAnalyzeSinglePeriodIRRMatchesMOIC(t *testing.T) {
	a := assumption.DefaultLBO()
	a.HoldPeriodYears = 1
	a.TxFees = 0

	res := analyze(t, a)
	if !almostEqual(res.IRR, res.MOIC-1) {
		t.Errorf("IRR = %v, MOIC-1 = %v; want equal for N=1 with no interim distribution", res.IRR, res.MOIC-1)
	}
}

func TestAnalyzeRejectsZeroEquity(t *testing.T) {
	a := assumption.DefaultLBO()
	a.DebtBankPct = 0.85
	a.DebtMezzPct = 0.15
	a.EquityPct = 0

	table, err := forecast.Build(a)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}
	schedule, err := debt.Build(a, table.UFCF)
	if err != nil {
		t.Fatalf("debt.Build: %v", err)
	}

	_, err = Analyze(a, table, schedule)
	if err == nil {
		t.Fatal("expected error for zero equity")
	}
	var invalid *InvalidCapitalStructureError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *InvalidCapitalStructureError", err)
	}
	if invalid.EquityInvested != 0 {
		t.Errorf("EquityInvested = %v, want 0", invalid.EquityInvested)
	}
}

func TestAnalyzeEquityWipeout(t *testing.T) {
	a := assumption.DefaultLBO()
	a.EntryEV = 4000 // bank retires in year 1, distributions flow after
	a.TxFees = 0
	a.ExitMultiple = 0.05 // exit proceeds below the mezzanine bullet

	res := analyze(t, a)
	if !res.EquityWipedOut {
		t.Fatal("EquityWipedOut should be true")
	}
	if res.ExitEquityValue >= 0 {
		t.Errorf("ExitEquityValue = %v, want negative", res.ExitEquityValue)
	}
	if res.MOIC >= 0 {
		t.Errorf("MOIC = %v, want negative", res.MOIC)
	}
	if res.BankOutstandingAtExit {
		t.Error("bank should be retired in this scenario")
	}
}

func TestAnalyzeYearsMismatch(t *testing.T) {
	a := assumption.DefaultLBO()
	table, err := forecast.Build(a)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}
	schedule, err := debt.Build(a, table.UFCF)
	if err != nil {
		t.Fatalf("debt.Build: %v", err)
	}

	short := assumption.DefaultLBO()
	short.HoldPeriodYears = 3
	shortTable, err := forecast.Build(short)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}

	if _, err := Analyze(a, shortTable, schedule); err == nil {
		t.Fatal("expected error for mismatched horizons")
	}
}
