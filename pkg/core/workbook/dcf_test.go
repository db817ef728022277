package workbook

import (
	"errors"
	"reflect"
	"testing"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/forecast"
	"finmodel/pkg/core/valuation"
	"finmodel/pkg/models"
)

func buildDCF(t *testing.T, op assumption.CompanyAssumptions, d assumption.DCFAssumptions) (*RecordingSink, *models.RunSummary) {
	t.Helper()
	rec := NewRecordingSink()
	summary, err := NewAssembler(rec).BuildDCF("Acme Industrial Holdings", op, d)
	if err != nil {
		t.Fatalf("BuildDCF: %v", err)
	}
	return rec, summary
}

func TestBuildDCFStandardScenario(t *testing.T) {
	rec, summary := buildDCF(t, assumption.DefaultDCFOperating(), assumption.DefaultDCF())

	wantSheets := []string{
		SheetAssumptions, SheetForecast, SheetDCF,
		SheetSensitivity, SheetSummary,
	}
	if !reflect.DeepEqual(rec.Sheets(), wantSheets) {
		t.Errorf("sheets = %v, want %v", rec.Sheets(), wantSheets)
	}
	if rec.Finalized() {
		t.Error("assembler must not finalize the sink")
	}

	if !almostEqual(summary.WACC, 0.0867) {
		t.Errorf("WACC = %v, want 0.0867", summary.WACC)
	}
	if summary.EnterpriseValue < 2000 || summary.EnterpriseValue > 3000 {
		t.Errorf("EnterpriseValue = %v, want within [2000, 3000]", summary.EnterpriseValue)
	}
	if !almostEqual(summary.EquityValue, summary.EnterpriseValue-200) {
		t.Errorf("EquityValue = %v, want EV-200", summary.EquityValue)
	}
	if !almostEqual(summary.ImpliedSharePrice, summary.EquityValue/50) {
		t.Errorf("ImpliedSharePrice = %v, want EquityValue/50", summary.ImpliedSharePrice)
	}
	if len(summary.Flags) != 0 {
		t.Errorf("Flags = %v, want none", summary.Flags)
	}
}

func TestBuildDCFFormulas(t *testing.T) {
	rec, _ := buildDCF(t, assumption.DefaultDCFOperating(), assumption.DefaultDCF())

	want := map[[2]string]string{
		// Cost of capital rows are live formulas over the inputs above them.
		{SheetAssumptions, "B22"}: "=Rf+Beta*ERP",
		{SheetAssumptions, "B25"}: "=CoD_pre*(1-TaxRate)",
		{SheetAssumptions, "B26"}: "=Wd*CoD_at+(1-Wd)*CoE",

		{SheetDCF, "B4"}:  "=Forecast_FCF!B13",
		{SheetDCF, "C5"}:  "=B5+1",
		{SheetDCF, "B6"}:  "=1/(1+WACC)^B5",
		{SheetDCF, "B7"}:  "=B4*B6",
		{SheetDCF, "G10"}: "=G4*(1+g_term)/(WACC-g_term)",
		{SheetDCF, "G11"}: "=Forecast_FCF!G6*ExitMultiple",
		{SheetDCF, "G12"}: "=G10",
		{SheetDCF, "G13"}: "=G12*G6",
		{SheetDCF, "B16"}: "=SUM(B7:G7)",
		{SheetDCF, "B17"}: "=G13",
		{SheetDCF, "B18"}: "=B16+B17",
		{SheetDCF, "B21"}: "=B18-B19+B20",
		{SheetDCF, "B23"}: "=B21/B22",
		{SheetDCF, "B26"}: "=CoE-CoD_at",
		{SheetDCF, "B27"}: "=WACC-g_term",

		{SheetSummary, "B4"}:  "=DCF!B18",
		{SheetSummary, "B6"}:  "=DCF!B23",
		{SheetSummary, "B7"}:  "=WACC",
		{SheetSummary, "B14"}: "=Forecast_FCF!D4",
		{SheetSummary, "E18"}: "=Forecast_FCF!G13",
		{SheetSummary, "B20"}: "=MIN(DCF!B26,DCF!B27)",
	}
	for key, wantFormula := range want {
		got, ok := rec.FormulaAt(key[0], key[1])
		if !ok {
			t.Errorf("no formula at %s!%s", key[0], key[1])
			continue
		}
		if got != wantFormula {
			t.Errorf("%s!%s = %q, want %q", key[0], key[1], got, wantFormula)
		}
	}

	// Mid-year convention seeds the period row at half a year.
	v, ok := rec.ValueAt(SheetDCF, "B5")
	if !ok {
		t.Fatal("no value at DCF!B5")
	}
	if p, ok := v.(float64); !ok || !almostEqual(p, 0.5) {
		t.Errorf("DCF!B5 = %v, want 0.5", v)
	}

	// Terminal method lands in the summary as text.
	m, _ := rec.ValueAt(SheetSummary, "B8")
	if m != "perpetuity" {
		t.Errorf("Summary!B8 = %v, want %q", m, "perpetuity")
	}
}

func TestBuildDCFNamedRanges(t *testing.T) {
	rec, summary := buildDCF(t, assumption.DefaultDCFOperating(), assumption.DefaultDCF())
	names := rec.DefinedNames()

	wantTargets := map[string]string{
		"Horizon":  "Assumptions!$B$6",
		"Rf":       "Assumptions!$B$19",
		"CoE":      "Assumptions!$B$22",
		"CoD_at":   "Assumptions!$B$25",
		"WACC":     "Assumptions!$B$26",
		"g_term":   "Assumptions!$B$29",
		"NetDebt":  "Assumptions!$B$33",
		"Shares":   "Assumptions!$B$35",
		"FCFF_Row": "Forecast_FCF!$B$13:$G$13",
	}
	for name, target := range wantTargets {
		got, ok := names[name]
		if !ok {
			t.Errorf("name %q not defined", name)
			continue
		}
		if got != target {
			t.Errorf("name %q -> %q, want %q", name, got, target)
		}
	}
	// 22 assumption entries plus the UFCF row.
	if len(names) != 23 {
		t.Errorf("defined %d names, want 23", len(names))
	}
	if len(summary.NamedRanges) != 23 {
		t.Errorf("NamedRanges = %d, want 23", len(summary.NamedRanges))
	}
}

func TestBuildDCFChecksArePositive(t *testing.T) {
	rec, summary := buildDCF(t, assumption.DefaultDCFOperating(), assumption.DefaultDCF())

	if len(summary.Checks) != 3 {
		t.Fatalf("Checks = %d, want 3", len(summary.Checks))
	}
	for _, c := range summary.Checks {
		if c.Want != "positive" {
			t.Errorf("check %s!%s want = %q, want %q", c.Sheet, c.Cell, c.Want, "positive")
		}
		if f, ok := rec.FormulaAt(c.Sheet, c.Cell); !ok || f != c.Formula {
			t.Errorf("check %s!%s formula = %q, cell holds %q", c.Sheet, c.Cell, c.Formula, f)
		}
	}
}

func TestBuildDCFSensitivityGrids(t *testing.T) {
	rec, _ := buildDCF(t, assumption.DefaultDCFOperating(), assumption.DefaultDCF())

	// Axis headers: growth across, WACC down; then multiples across.
	checks := []struct {
		cell string
		want float64
	}{
		{"B4", 0.01}, {"G4", 0.035}, {"A5", 0.06}, {"A9", 0.14},
		{"B13", 6}, {"F13", 14}, {"A14", 0.06}, {"A18", 0.14},
	}
	for _, tc := range checks {
		v, ok := rec.ValueAt(SheetSensitivity, tc.cell)
		if !ok {
			t.Errorf("no value at Sensitivity!%s", tc.cell)
			continue
		}
		if f, ok := v.(float64); !ok || !almostEqual(f, tc.want) {
			t.Errorf("Sensitivity!%s = %v, want %v", tc.cell, v, tc.want)
		}
	}

	// A grid cell is a full recomputation at its axis pair: WACC 10%,
	// exit multiple 10x sits two rows and two columns into the block.
	op := assumption.DefaultDCFOperating()
	d := assumption.DefaultDCF()
	table, err := forecast.Build(op)
	if err != nil {
		t.Fatalf("forecast.Build: %v", err)
	}
	res, err := valuation.CalculateDCF(valuation.DCFInput{
		UFCF:              table.UFCF,
		TerminalEBITDA:    table.TerminalEBITDA(),
		WACC:              0.10,
		TerminalGrowth:    d.TerminalGrowth,
		TerminalMethod:    assumption.TerminalExitMultiple,
		ExitMultiple:      10,
		MidYear:           d.MidYearConvention,
		NetDebt:           d.NetDebt,
		OtherAdjustments:  d.OtherAdjustments,
		SharesOutstanding: d.SharesOutstanding,
	})
	if err != nil {
		t.Fatalf("CalculateDCF: %v", err)
	}
	v, ok := rec.ValueAt(SheetSensitivity, "D16")
	if !ok {
		t.Fatal("no value at Sensitivity!D16")
	}
	if f, ok := v.(float64); !ok || !almostEqual(f, res.EquityValue) {
		t.Errorf("Sensitivity!D16 = %v, want %v", v, res.EquityValue)
	}
}

func TestBuildDCFExitMultipleMethod(t *testing.T) {
	d := assumption.DefaultDCF()
	d.TerminalMethod = assumption.TerminalExitMultiple
	rec, _ := buildDCF(t, assumption.DefaultDCFOperating(), d)

	got, ok := rec.FormulaAt(SheetDCF, "G12")
	if !ok {
		t.Fatal("no formula at DCF!G12")
	}
	if got != "=G11" {
		t.Errorf("selected terminal value = %q, want =G11", got)
	}
}

func TestBuildDCFFullYearConvention(t *testing.T) {
	d := assumption.DefaultDCF()
	d.MidYearConvention = false
	rec, _ := buildDCF(t, assumption.DefaultDCFOperating(), d)

	v, ok := rec.ValueAt(SheetDCF, "B5")
	if !ok {
		t.Fatal("no value at DCF!B5")
	}
	if p, ok := v.(float64); !ok || !almostEqual(p, 1) {
		t.Errorf("DCF!B5 = %v, want 1", v)
	}
}

func TestBuildDCFDeterministic(t *testing.T) {
	op := assumption.DefaultDCFOperating()
	d := assumption.DefaultDCF()
	rec1 := NewRecordingSink()
	if _, err := NewAssembler(rec1).BuildDCF("Acme", op, d); err != nil {
		t.Fatalf("BuildDCF: %v", err)
	}
	rec2 := NewRecordingSink()
	if _, err := NewAssembler(rec2).BuildDCF("Acme", op, d); err != nil {
		t.Fatalf("BuildDCF: %v", err)
	}
	if !reflect.DeepEqual(rec1.Ops(), rec2.Ops()) {
		t.Error("two builds from identical inputs produced different op streams")
	}
}

func TestBuildDCFRejectsInvertedCostOfCapital(t *testing.T) {
	d := assumption.DefaultDCF()
	d.Beta = 0.1
	d.EquityRiskPremium = 0.01
	d.RiskFreeRate = 0.01
	d.PreTaxCostOfDebt = 0.08

	rec := NewRecordingSink()
	_, err := NewAssembler(rec).BuildDCF("Acme", assumption.DefaultDCFOperating(), d)
	if err == nil {
		t.Fatal("expected cost-of-capital validation error")
	}
	var invalid *assumption.InvalidAssumptionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error type = %T, want *assumption.InvalidAssumptionError", err)
	}
	if len(rec.Ops()) != 0 {
		t.Errorf("%d ops written before validation failed, want 0", len(rec.Ops()))
	}
}
