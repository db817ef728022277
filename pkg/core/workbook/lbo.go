package workbook

import (
	"fmt"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/debt"
	"finmodel/pkg/core/forecast"
	"finmodel/pkg/core/formula"
	"finmodel/pkg/core/returns"
	"finmodel/pkg/core/sensitivity"
	"finmodel/pkg/models"
)

// DebtSchedule row map.
const (
	rowDbBankBeg = 5
	rowDbBankInt = 6
	rowDbBankRep = 7
	rowDbBankEnd = 8
	rowDbMezzBeg = 11
	rowDbMezzInt = 12
	rowDbMezzRep = 13
	rowDbMezzEnd = 14
)

// Returns tab row map.
const (
	rowRetOutflow  = 5
	rowRetDist     = 6
	rowRetExitEV   = 9
	rowRetNetDebt  = 10
	rowRetExitEq   = 11
	rowRetIRR      = 14
	rowRetMOIC     = 15
	rowRetGridNote = 19
	rowRetGridTop  = 20
)

// lboBuild carries the computed model and the layout state for one LBO
// workbook.
type lboBuild struct {
	sink  Sink
	names *nameTable

	a     assumption.CompanyAssumptions
	reg   *assumption.Registry
	ret   *returns.Result
	grid  *sensitivity.Grid
	years int

	summary *models.RunSummary
}

// BuildLBO computes the complete LBO and writes the six-tab workbook:
// Assumptions, Sources_Uses, ProForma_BS, Forecast_FCF, DebtSchedule,
// Returns. Every assumption is written exactly once and referenced by name
// downstream, so editing an input cell reflows the whole book.
func (b *Assembler) BuildLBO(company string, a assumption.CompanyAssumptions) (*models.RunSummary, error) {
	reg, err := assumption.NewLBORegistry(a)
	if err != nil {
		return nil, err
	}
	table, err := forecast.Build(a)
	if err != nil {
		return nil, err
	}
	sched, err := debt.Build(a, table.UFCF)
	if err != nil {
		return nil, err
	}
	ret, err := returns.Analyze(a, table, sched)
	if err != nil {
		return nil, err
	}
	grid, err := sensitivity.DefaultEntryExitGrid(a)
	if err != nil {
		return nil, err
	}

	summary := &models.RunSummary{
		ModelType:      models.ModelTypeLBO,
		Company:        company,
		Years:          a.HoldPeriodYears,
		IRR:            ret.IRR,
		MOIC:           ret.MOIC,
		EntryEV:        a.EntryEV,
		ExitEV:         ret.ExitEV,
		ExitEquity:     ret.ExitEquityValue,
		EquityInvested: ret.EquityInvested,
		Sheets: []string{
			SheetAssumptions, SheetSourcesUses, SheetProFormaBS,
			SheetForecast, SheetDebt, SheetReturns,
		},
	}
	if ret.EquityWipedOut {
		summary.Flags = append(summary.Flags, FlagEquityWipedOut)
	}
	if ret.BankOutstandingAtExit {
		summary.Flags = append(summary.Flags, FlagBankOutstanding)
	}

	l := &lboBuild{
		sink:    b.sink,
		names:   newNameTable(b.sink),
		a:       a,
		reg:     reg,
		ret:     ret,
		grid:    grid,
		years:   a.HoldPeriodYears,
		summary: summary,
	}
	steps := []func() error{
		l.assumptionsTab,
		l.sourcesUsesTab,
		l.proFormaTab,
		l.forecastTab,
		l.debtTab,
		l.returnsTab,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	summary.NamedRanges = l.names.ranges()
	return summary, nil
}

func (l *lboBuild) check(sheet, cell, label, rendered, want string) {
	l.summary.Checks = append(l.summary.Checks, models.CheckCell{
		Sheet: sheet, Cell: cell, Label: label, Formula: rendered, Want: want,
	})
}

func (l *lboBuild) assumptionsTab() error {
	return writeAssumptions(l.sink, l.names, "LBO Assumptions & Drivers", l.reg, []int{4, 9, 22}, nil)
}

// sourcesUsesTab writes the transaction funding bridge. Both totals derive
// from the same inputs, so the B15 check nets to zero on any assumption
// set whose leverage weights pass validation.
func (l *lboBuild) sourcesUsesTab() error {
	w, err := newTab(l.sink, l.names.res, SheetSourcesUses)
	if err != nil {
		return err
	}
	w.width(1, 1, 30)
	w.width(2, 2, 16)
	w.value(1, 1, "Sources & Uses of Funds", TagHeader)
	w.merge(1, 1, 2, 1)

	w.value(1, 3, "Sources", TagSubheader)
	w.value(1, 4, "Bank Debt", TagNone)
	w.formula(2, 4, formula.Mul(formula.Name("EntryEV"), formula.Name("DebtBank_pct")), TagCalc)
	w.value(1, 5, "Mezzanine Debt", TagNone)
	w.formula(2, 5, formula.Mul(formula.Name("EntryEV"), formula.Name("DebtMezz_pct")), TagCalc)
	w.value(1, 6, "Sponsor Equity", TagNone)
	w.formula(2, 6, formula.Mul(formula.Name("EntryEV"), formula.Name("Equity_pct")), TagCalc)
	w.value(1, 7, "Transaction Fees (Sponsor Funded)", TagNone)
	w.formula(2, 7, formula.Name("TxFees"), TagCalc)
	w.value(1, 8, "Total Sources", TagNone)
	w.formula(2, 8, formula.Sum(formula.Rng(formula.Span(formula.Cell(2, 4), formula.Cell(2, 7)))), TagOutput)

	w.value(1, 10, "Uses", TagSubheader)
	w.value(1, 11, "Purchase of Enterprise", TagNone)
	w.formula(2, 11, formula.Name("EntryEV"), TagCalc)
	w.value(1, 12, "Transaction Fees", TagNone)
	w.formula(2, 12, formula.Name("TxFees"), TagCalc)
	w.value(1, 13, "Total Uses", TagNone)
	w.formula(2, 13, formula.Sum(formula.Rng(formula.Span(formula.Cell(2, 11), formula.Cell(2, 12)))), TagOutput)

	w.value(1, 15, "Check (Sources - Uses)", TagNone)
	chk := w.formula(2, 15, formula.Sub(formula.Ref(formula.Cell(2, 8)), formula.Ref(formula.Cell(2, 13))), TagCalc)

	if w.err == nil {
		w.fail(l.names.define("TotalDebt", formula.Span(
			formula.Cell(2, 4).On(SheetSourcesUses), formula.Cell(2, 5))))
	}
	if w.err == nil {
		w.fail(l.names.defineCell("EquityInvested", formula.Cell(2, 6).On(SheetSourcesUses)))
	}
	if err := w.done(); err != nil {
		return err
	}
	l.check(SheetSourcesUses, "B15", "Sources equal Uses", chk, "zero")
	return nil
}

// proFormaTab writes the at-close balance sheet. Assets plug to the
// purchase price so the sheet balances by construction against the
// Sources & Uses funding stack.
func (l *lboBuild) proFormaTab() error {
	w, err := newTab(l.sink, l.names.res, SheetProFormaBS)
	if err != nil {
		return err
	}
	w.width(1, 1, 34)
	w.width(2, 3, 16)
	w.value(1, 1, "Pro Forma Balance Sheet (At Close)", TagHeader)
	w.merge(1, 1, 3, 1)

	w.value(1, 3, "Assets", TagSubheader)
	w.value(1, 4, "Net Working Capital", TagNone)
	w.formula(2, 4, formula.Mul(formula.Name("Rev0"), formula.Name("NWC_pct")), TagCalc)
	w.value(1, 5, "PP&E, Goodwill & Intangibles (Plug)", TagNone)
	w.formula(2, 5, formula.Sub(formula.Name("EntryEV"), formula.Ref(formula.Cell(2, 4))), TagCalc)
	w.value(1, 6, "Capitalized Transaction Fees", TagNone)
	w.formula(2, 6, formula.Name("TxFees"), TagCalc)
	w.value(1, 7, "Total Assets", TagNone)
	w.formula(2, 7, formula.Sum(formula.Rng(formula.Span(formula.Cell(2, 4), formula.Cell(2, 6)))), TagOutput)

	w.value(1, 9, "Liabilities & Equity", TagSubheader)
	w.value(1, 10, "Bank Debt", TagNone)
	w.formula(2, 10, formula.Ref(formula.Cell(2, 4).On(SheetSourcesUses).Abs()), TagCalc)
	w.value(1, 11, "Mezzanine Debt", TagNone)
	w.formula(2, 11, formula.Ref(formula.Cell(2, 5).On(SheetSourcesUses).Abs()), TagCalc)
	w.value(1, 12, "Sponsor Equity (incl. Fees)", TagNone)
	w.formula(2, 12, formula.Add(formula.Name("EquityInvested"), formula.Name("TxFees")), TagOutput)
	w.value(1, 13, "Total Liabilities & Equity", TagNone)
	w.formula(2, 13, formula.Sum(formula.Rng(formula.Span(formula.Cell(2, 10), formula.Cell(2, 12)))), TagOutput)

	w.value(1, 15, "Check (Assets - L&E)", TagNone)
	chk := w.formula(2, 15, formula.Sub(formula.Ref(formula.Cell(2, 7)), formula.Ref(formula.Cell(2, 13))), TagCalc)

	if err := w.done(); err != nil {
		return err
	}
	l.check(SheetProFormaBS, "B15", "Balance sheet balances", chk, "zero")
	return nil
}

func (l *lboBuild) forecastTab() error {
	return writeForecast(l.sink, l.names, l.years)
}

// debtTab writes the two-tranche waterfall. The bank sweep is
// MIN(beginning balance, UFCF); the mezzanine pays interest only and
// bullets its full balance in the final year.
func (l *lboBuild) debtTab() error {
	w, err := newTab(l.sink, l.names.res, SheetDebt)
	if err != nil {
		return err
	}
	n := l.years
	last := yearCol(n)
	w.width(1, 1, 30)
	w.width(2, last, 14)
	w.value(1, 1, "Debt Schedule (Cash Sweep Waterfall)", TagHeader)
	w.merge(1, 1, last, 1)
	w.yearHeader(n)

	w.value(1, 4, "Bank Debt (Cash Sweep)", TagSubheader)
	w.value(1, rowDbBankBeg, "Beginning Balance", TagNone)
	w.value(1, rowDbBankInt, "Interest Expense", TagNone)
	w.value(1, rowDbBankRep, "Cash Sweep Repayment", TagNone)
	w.value(1, rowDbBankEnd, "Ending Balance", TagNone)

	w.value(1, 10, "Mezzanine Debt (Bullet)", TagSubheader)
	w.value(1, rowDbMezzBeg, "Beginning Balance", TagNone)
	w.value(1, rowDbMezzInt, "Interest Expense", TagNone)
	w.value(1, rowDbMezzRep, "Bullet Repayment", TagNone)
	w.value(1, rowDbMezzEnd, "Ending Balance", TagNone)

	for i := 1; i <= n; i++ {
		c := yearCol(i)

		bankBeg := formula.Expr(formula.Ref(formula.Cell(2, 4).On(SheetSourcesUses).Abs()))
		if i > 1 {
			bankBeg = formula.Ref(formula.Cell(c-1, rowDbBankEnd))
		}
		w.formula(c, rowDbBankBeg, bankBeg, TagCalc)
		w.formula(c, rowDbBankInt, formula.Mul(
			formula.Ref(formula.Cell(c, rowDbBankBeg)), formula.Name("InterestBank")), TagCalc)
		w.formula(c, rowDbBankRep, formula.Min(
			formula.Ref(formula.Cell(c, rowDbBankBeg)),
			formula.Ref(formula.Cell(c, rowFcUFCF).On(SheetForecast))), TagCalc)
		w.formula(c, rowDbBankEnd, formula.Sub(
			formula.Ref(formula.Cell(c, rowDbBankBeg)),
			formula.Ref(formula.Cell(c, rowDbBankRep))), TagCalc)

		mezzBeg := formula.Expr(formula.Ref(formula.Cell(2, 5).On(SheetSourcesUses).Abs()))
		if i > 1 {
			mezzBeg = formula.Ref(formula.Cell(c-1, rowDbMezzEnd))
		}
		w.formula(c, rowDbMezzBeg, mezzBeg, TagCalc)
		w.formula(c, rowDbMezzInt, formula.Mul(
			formula.Ref(formula.Cell(c, rowDbMezzBeg)), formula.Name("InterestMezz")), TagCalc)
		if i < n {
			w.value(c, rowDbMezzRep, 0.0, TagCalc)
		} else {
			w.formula(c, rowDbMezzRep, formula.Ref(formula.Cell(c, rowDbMezzBeg)), TagCalc)
		}
		w.formula(c, rowDbMezzEnd, formula.Sub(
			formula.Ref(formula.Cell(c, rowDbMezzBeg)),
			formula.Ref(formula.Cell(c, rowDbMezzRep))), TagCalc)
	}

	if w.err == nil {
		w.fail(l.names.define("Interest", formula.Span(
			formula.Cell(2, rowDbBankInt).On(SheetDebt), formula.Cell(last, rowDbBankInt))))
	}
	if w.err == nil {
		w.fail(l.names.define("DebtRepayment", formula.Span(
			formula.Cell(2, rowDbBankRep).On(SheetDebt), formula.Cell(last, rowDbBankRep))))
	}
	if w.err == nil {
		w.fail(l.names.define("Debt_Bal", formula.Span(
			formula.Cell(2, rowDbBankEnd).On(SheetDebt), formula.Cell(last, rowDbBankEnd))))
	}
	return w.done()
}

// returnsTab writes the equity cash flow vector, the exit bridge, the
// headline metrics and the entry/exit sensitivity grid. IRR is written as
// the solver's value: the portable formula subset has no iterative
// function, and a stale literal is better than a #NAME? cell.
func (l *lboBuild) returnsTab() error {
	w, err := newTab(l.sink, l.names.res, SheetReturns)
	if err != nil {
		return err
	}
	n := l.years
	last := yearCol(n)
	w.width(1, 1, 32)
	w.width(2, last, 14)
	w.value(1, 1, "Returns Analysis", TagHeader)
	w.merge(1, 1, last, 1)
	w.yearHeader(n)

	w.value(1, 4, "Equity Cash Flows", TagSubheader)
	w.value(1, rowRetOutflow, "Initial Equity Outflow (Close)", TagNone)
	w.formula(2, rowRetOutflow, formula.Neg(formula.Add(
		formula.Name("EquityInvested"), formula.Name("TxFees"))), TagCalc)
	w.value(1, rowRetDist, "Annual Equity Distribution", TagNone)
	for i := 1; i <= n; i++ {
		c := yearCol(i)
		w.formula(c, rowRetDist, formula.Sub(
			formula.Ref(formula.Cell(c, rowFcUFCF).On(SheetForecast)),
			formula.Ref(formula.Cell(c, rowDbBankRep).On(SheetDebt))), TagCalc)
	}

	w.value(1, 8, fmt.Sprintf("Exit Analysis (Year %d)", n), TagSubheader)
	w.value(1, rowRetExitEV, "Exit Enterprise Value", TagNone)
	w.formula(2, rowRetExitEV, formula.Mul(
		formula.Ref(formula.Cell(last, rowFcEBITDA).On(SheetForecast)),
		formula.Name("ExitMultiple")), TagCalc)
	w.value(1, rowRetNetDebt, "Less: Net Debt at Exit", TagNone)
	w.formula(2, rowRetNetDebt, formula.Add(
		formula.Ref(formula.Cell(last, rowDbBankEnd).On(SheetDebt)),
		formula.Ref(formula.Cell(last, rowDbMezzRep).On(SheetDebt))), TagCalc)
	w.value(1, rowRetExitEq, "Exit Equity Value", TagNone)
	w.formula(2, rowRetExitEq, formula.Sub(
		formula.Ref(formula.Cell(2, rowRetExitEV)),
		formula.Ref(formula.Cell(2, rowRetNetDebt))), TagOutput)

	w.value(1, 13, "Returns Metrics", TagSubheader)
	w.value(1, rowRetIRR, "Equity IRR", TagNone)
	w.value(2, rowRetIRR, l.ret.IRR, TagPercentOut)
	w.value(1, rowRetMOIC, "Equity MOIC", TagNone)
	w.formula(2, rowRetMOIC, formula.Div(
		formula.Ref(formula.Cell(2, rowRetExitEq)),
		formula.Name("EquityInvested")), TagMultipleOut)

	w.value(1, 17, "Sensitivity Analysis", TagSubheader)
	w.value(1, 18, "Entry Multiple vs Exit Multiple", TagNone)
	w.value(1, rowRetGridNote, l.grid.Note, TagNone)
	w.grid(rowRetGridTop, l.grid, TagMultiple, TagMultiple, TagPercent)

	if w.err == nil {
		w.fail(l.names.defineCell("EquityValue", formula.Cell(2, rowRetExitEq).On(SheetReturns)))
	}
	if w.err == nil {
		w.fail(l.names.defineCell("IRR", formula.Cell(2, rowRetIRR).On(SheetReturns)))
	}
	if w.err == nil {
		w.fail(l.names.defineCell("MOIC", formula.Cell(2, rowRetMOIC).On(SheetReturns)))
	}
	return w.done()
}
