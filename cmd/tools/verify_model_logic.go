// Developer harness: recomputes the standard LBO acceptance scenario and the
// default DCF profile through the Go-side engines and prints PASS/FAIL per
// expectation. Exits non-zero if any check fails.
package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/debt"
	"finmodel/pkg/core/forecast"
	"finmodel/pkg/core/returns"
	"finmodel/pkg/core/valuation"
)

var failures int

func banner(title string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("  %s\n", title)
	fmt.Println(strings.Repeat("=", 72))
}

// check compares with relative tolerance against the expected magnitude.
func check(label string, got, want, tol float64) {
	status := "PASS"
	if math.Abs(got-want) > tol*math.Max(1, math.Abs(want)) {
		status = "FAIL"
		failures++
	}
	fmt.Printf("  [%s] %-36s got %16.6f  want %16.6f\n", status, label, got, want)
}

func checkBand(label string, got, lo, hi float64) {
	status := "PASS"
	if got < lo || got > hi {
		status = "FAIL"
		failures++
	}
	fmt.Printf("  [%s] %-36s got %16.6f  band [%g, %g]\n", status, label, got, lo, hi)
}

func fatal(stage string, err error) {
	fmt.Printf("  [FAIL] %s: %v\n", stage, err)
	os.Exit(1)
}

func main() {
	// The acceptance scenario is the stock mid-market profile: 45000 entry
	// EV at 60/15/25 bank/mezz/equity, 25000 revenue growing 8% on a 25%
	// margin, 8.5x exit after 5 years.
	a := assumption.DefaultLBO()

	banner("FORECAST ENGINE")
	f, err := forecast.Build(a)
	if err != nil {
		fatal("forecast build", err)
	}
	wantUFCF := []float64{2940, 3175.2, 3429.216, 3703.55328, 3999.8375424}
	for i, want := range wantUFCF {
		check(fmt.Sprintf("UFCF year %d", i+1), f.UFCF[i], want, 1e-6)
	}
	check("exit-year EBITDA", f.TerminalEBITDA(), 9183.30048, 1e-6)

	banner("DEBT WATERFALL")
	s, err := debt.Build(a, f.UFCF)
	if err != nil {
		fatal("waterfall build", err)
	}
	check("bank year-1 beginning", s.Bank.Beginning[0], 27000, 1e-6)
	check("mezzanine draw", s.Mezz.Beginning[0], 6750, 1e-6)
	wantEndings := []float64{24060, 20884.8, 17455.584, 13752.03072, 9752.1931776}
	for i, want := range wantEndings {
		check(fmt.Sprintf("bank ending year %d", i+1), s.Bank.Ending[i], want, 1e-6)
	}
	check("mezzanine bullet year 5", s.Mezz.Repayment[4], 6750, 1e-6)

	banner("RETURNS")
	r, err := returns.Analyze(a, f, s)
	if err != nil {
		fatal("returns analysis", err)
	}
	check("equity invested", r.EquityInvested, 11250, 1e-6)
	check("exit enterprise value", r.ExitEV, 78058.054080, 1e-6)
	check("net debt at exit", r.NetDebtAtExit, 16502.1931776, 1e-6)
	check("exit equity value", r.ExitEquityValue, 61555.8609024, 1e-6)
	check("MOIC", r.MOIC, 61555.8609024/11250, 1e-6)
	checkBand("IRR", r.IRR, 0.10, 0.40)

	// Degenerate hold: one year, no fees. The equity flow collapses to a
	// single round trip, so IRR must equal MOIC - 1 exactly.
	short := a
	short.HoldPeriodYears = 1
	short.TxFees = 0
	f1, err := forecast.Build(short)
	if err != nil {
		fatal("one-year forecast", err)
	}
	s1, err := debt.Build(short, f1.UFCF)
	if err != nil {
		fatal("one-year waterfall", err)
	}
	r1, err := returns.Analyze(short, f1, s1)
	if err != nil {
		fatal("one-year returns", err)
	}
	check("one-year IRR vs MOIC-1", r1.IRR, r1.MOIC-1, 1e-9)

	banner("DCF ENGINE")
	op := assumption.DefaultDCFOperating()
	d := assumption.DefaultDCF()
	w, err := valuation.BuildWACC(op, d)
	if err != nil {
		fatal("wacc build", err)
	}
	wantWACC := d.DebtWeight*d.PreTaxCostOfDebt*(1-op.TaxRate) +
		(1-d.DebtWeight)*(d.RiskFreeRate+d.Beta*d.EquityRiskPremium)
	check("WACC", w.WACC, wantWACC, 1e-12)
	check("cost of equity", w.CostOfEquity, 0.117, 1e-12)
	check("after-tax cost of debt", w.AfterTaxCostOfDebt, 0.04125, 1e-12)

	ft, err := forecast.Build(op)
	if err != nil {
		fatal("dcf forecast", err)
	}
	res, err := valuation.CalculateDCF(valuation.DCFInput{
		UFCF:              ft.UFCF,
		TerminalEBITDA:    ft.TerminalEBITDA(),
		WACC:              w.WACC,
		TerminalGrowth:    d.TerminalGrowth,
		TerminalMethod:    d.TerminalMethod,
		ExitMultiple:      op.ExitMultiple,
		MidYear:           d.MidYearConvention,
		NetDebt:           d.NetDebt,
		OtherAdjustments:  d.OtherAdjustments,
		SharesOutstanding: d.SharesOutstanding,
	})
	if err != nil {
		fatal("dcf rollup", err)
	}
	check("mid-year factor year 1", res.DiscountFactors[0], 1/math.Pow(1+w.WACC, 0.5), 1e-12)
	check("equity bridge", res.EquityValue, res.EnterpriseValue-d.NetDebt, 1e-12)
	check("implied price", res.ImpliedSharePrice, res.EquityValue/d.SharesOutstanding, 1e-12)
	checkBand("enterprise value", res.EnterpriseValue, 2000, 3000)

	fmt.Println()
	if failures > 0 {
		fmt.Printf("%d check(s) FAILED\n", failures)
		os.Exit(1)
	}
	fmt.Println("All checks passed.")
}
