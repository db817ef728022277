package workbook

import (
	"fmt"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/forecast"
	"finmodel/pkg/core/formula"
	"finmodel/pkg/core/sensitivity"
	"finmodel/pkg/core/valuation"
	"finmodel/pkg/models"
)

// DCF tab row map.
const (
	rowDcfUFCF    = 4
	rowDcfPeriod  = 5
	rowDcfFactor  = 6
	rowDcfPV      = 7
	rowDcfTVPerp  = 10
	rowDcfTVExit  = 11
	rowDcfTVSel   = 12
	rowDcfPVTerm  = 13
	rowDcfSumPV   = 16
	rowDcfPVTVRef = 17
	rowDcfEV      = 18
	rowDcfNetDebt = 19
	rowDcfAdj     = 20
	rowDcfEquity  = 21
	rowDcfShares  = 22
	rowDcfPrice   = 23
	rowDcfChkCoE  = 26
	rowDcfChkG    = 27
)

// Summary tab row map.
const (
	rowSumEV     = 4
	rowSumEquity = 5
	rowSumPrice  = 6
	rowSumWACC   = 7
	rowSumMethod = 8
	rowSumGrowth = 9
	rowSumExit   = 10
	rowSumSeries = 13
	rowSumCheck  = 20
)

// dcfBuild carries the computed valuation and the layout state for one DCF
// workbook.
type dcfBuild struct {
	sink  Sink
	names *nameTable

	op         assumption.CompanyAssumptions
	d          assumption.DCFAssumptions
	reg        *assumption.Registry
	res        valuation.DCFResult
	priceGrid  *sensitivity.Grid
	equityGrid *sensitivity.Grid
	years      int

	summary *models.RunSummary
}

// BuildDCF computes the full discounted cash flow valuation and writes the
// five-tab workbook: Assumptions, Forecast_FCF, DCF, Sensitivity, Summary.
// The terminal-method row is bound at build time to the selected variant;
// the sheet carries both variants side by side for inspection.
func (b *Assembler) BuildDCF(company string, op assumption.CompanyAssumptions, d assumption.DCFAssumptions) (*models.RunSummary, error) {
	reg, err := assumption.NewDCFRegistry(op, d)
	if err != nil {
		return nil, err
	}
	table, err := forecast.Build(op)
	if err != nil {
		return nil, err
	}
	w, err := valuation.BuildWACC(op, d)
	if err != nil {
		return nil, err
	}
	in := valuation.DCFInput{
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
	res, err := valuation.CalculateDCF(in)
	if err != nil {
		return nil, err
	}
	priceGrid, err := valuation.PriceGrid(in)
	if err != nil {
		return nil, err
	}
	equityGrid, err := valuation.EquityGrid(in)
	if err != nil {
		return nil, err
	}

	summary := &models.RunSummary{
		ModelType:         models.ModelTypeDCF,
		Company:           company,
		Years:             op.HoldPeriodYears,
		WACC:              w.WACC,
		EnterpriseValue:   res.EnterpriseValue,
		EquityValue:       res.EquityValue,
		ImpliedSharePrice: res.ImpliedSharePrice,
		Sheets: []string{
			SheetAssumptions, SheetForecast, SheetDCF,
			SheetSensitivity, SheetSummary,
		},
	}

	dc := &dcfBuild{
		sink:       b.sink,
		names:      newNameTable(b.sink),
		op:         op,
		d:          d,
		reg:        reg,
		res:        res,
		priceGrid:  priceGrid,
		equityGrid: equityGrid,
		years:      op.HoldPeriodYears,
		summary:    summary,
	}
	steps := []func() error{
		dc.assumptionsTab,
		dc.forecastTab,
		dc.dcfTab,
		dc.sensitivityTab,
		dc.summaryTab,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	summary.NamedRanges = dc.names.ranges()
	return summary, nil
}

func (dc *dcfBuild) check(sheet, cell, label, rendered, want string) {
	dc.summary.Checks = append(dc.summary.Checks, models.CheckCell{
		Sheet: sheet, Cell: cell, Label: label, Formula: rendered, Want: want,
	})
}

// assumptionsTab writes the five DCF sections. The cost-of-capital rows
// CoE, CoD_at and WACC are live formulas over the input cells above them.
func (dc *dcfBuild) assumptionsTab() error {
	derived := map[string]formula.Expr{
		"CoE": formula.Add(formula.Name("Rf"),
			formula.Mul(formula.Name("Beta"), formula.Name("ERP"))),
		"CoD_at": formula.Mul(formula.Name("CoD_pre"),
			formula.Sub(formula.Num(1), formula.Name("TaxRate"))),
		"WACC": formula.Add(
			formula.Mul(formula.Name("Wd"), formula.Name("CoD_at")),
			formula.Mul(formula.Sub(formula.Num(1), formula.Name("Wd")), formula.Name("CoE"))),
	}
	return writeAssumptions(dc.sink, dc.names, "DCF Assumptions & Drivers", dc.reg, []int{4, 9, 18, 28, 32}, derived)
}

func (dc *dcfBuild) forecastTab() error {
	return writeForecast(dc.sink, dc.names, dc.years)
}

// dcfTab writes the discounting block, the terminal value pair and the
// enterprise-to-equity bridge. The discount period row chains +1 per year
// so flipping the mid-year seed re-times the whole book.
func (dc *dcfBuild) dcfTab() error {
	w, err := newTab(dc.sink, dc.names.res, SheetDCF)
	if err != nil {
		return err
	}
	n := dc.years
	last := yearCol(n)
	w.width(1, 1, 30)
	w.width(2, last, 12)
	w.value(1, 1, "DCF Valuation", TagHeader)
	w.merge(1, 1, last, 1)
	w.yearHeader(n)

	w.value(1, rowDcfUFCF, "UFCF", TagNone)
	w.value(1, rowDcfPeriod, "Discount Period (t)", TagNone)
	w.value(1, rowDcfFactor, "Discount Factor", TagNone)
	w.value(1, rowDcfPV, "PV of UFCF", TagNone)

	seed := 1.0
	if dc.d.MidYearConvention {
		seed = 0.5
	}
	for i := 1; i <= n; i++ {
		c := yearCol(i)
		w.formula(c, rowDcfUFCF, formula.Ref(formula.Cell(c, rowFcUFCF).On(SheetForecast)), TagCalc)
		if i == 1 {
			w.value(c, rowDcfPeriod, seed, TagNone)
		} else {
			w.formula(c, rowDcfPeriod, formula.Add(
				formula.Ref(formula.Cell(c-1, rowDcfPeriod)), formula.Num(1)), TagNone)
		}
		w.formula(c, rowDcfFactor, formula.Div(formula.Num(1), formula.Pow(
			formula.Add(formula.Num(1), formula.Name("WACC")),
			formula.Ref(formula.Cell(c, rowDcfPeriod)))), TagFactor)
		w.formula(c, rowDcfPV, formula.Mul(
			formula.Ref(formula.Cell(c, rowDcfUFCF)),
			formula.Ref(formula.Cell(c, rowDcfFactor))), TagCalc)
	}

	w.value(1, 9, "Terminal Value", TagSubheader)
	w.value(1, rowDcfTVPerp, "Terminal Value - Perpetuity", TagNone)
	w.formula(last, rowDcfTVPerp, formula.Div(
		formula.Mul(
			formula.Ref(formula.Cell(last, rowDcfUFCF)),
			formula.Add(formula.Num(1), formula.Name("g_term"))),
		formula.Sub(formula.Name("WACC"), formula.Name("g_term"))), TagCalc)
	w.value(1, rowDcfTVExit, "Terminal Value - Exit Multiple", TagNone)
	w.formula(last, rowDcfTVExit, formula.Mul(
		formula.Ref(formula.Cell(last, rowFcEBITDA).On(SheetForecast)),
		formula.Name("ExitMultiple")), TagCalc)

	selected := rowDcfTVPerp
	if dc.d.TerminalMethod == assumption.TerminalExitMultiple {
		selected = rowDcfTVExit
	}
	w.value(1, rowDcfTVSel, "Selected Terminal Value", TagNone)
	w.formula(last, rowDcfTVSel, formula.Ref(formula.Cell(last, selected)), TagOutput)
	w.value(1, rowDcfPVTerm, "PV of Terminal Value", TagNone)
	w.formula(last, rowDcfPVTerm, formula.Mul(
		formula.Ref(formula.Cell(last, rowDcfTVSel)),
		formula.Ref(formula.Cell(last, rowDcfFactor))), TagCalc)

	w.value(1, 15, "Enterprise Value Bridge", TagSubheader)
	w.value(1, rowDcfSumPV, "Sum of PV of UFCFs", TagNone)
	w.formula(2, rowDcfSumPV, formula.Sum(formula.Rng(formula.Span(
		formula.Cell(2, rowDcfPV), formula.Cell(last, rowDcfPV)))), TagOutput)
	w.value(1, rowDcfPVTVRef, "PV of Terminal Value", TagNone)
	w.formula(2, rowDcfPVTVRef, formula.Ref(formula.Cell(last, rowDcfPVTerm)), TagCalc)
	w.value(1, rowDcfEV, "Enterprise Value (EV)", TagNone)
	w.formula(2, rowDcfEV, formula.Add(
		formula.Ref(formula.Cell(2, rowDcfSumPV)),
		formula.Ref(formula.Cell(2, rowDcfPVTVRef))), TagOutput)
	w.value(1, rowDcfNetDebt, "Less: Net Debt", TagNone)
	w.formula(2, rowDcfNetDebt, formula.Name("NetDebt"), TagCalc)
	w.value(1, rowDcfAdj, "Plus: Other Adjustments", TagNone)
	w.formula(2, rowDcfAdj, formula.Name("OtherAdj"), TagCalc)
	w.value(1, rowDcfEquity, "Equity Value", TagNone)
	w.formula(2, rowDcfEquity, formula.Add(formula.Sub(
		formula.Ref(formula.Cell(2, rowDcfEV)),
		formula.Ref(formula.Cell(2, rowDcfNetDebt))),
		formula.Ref(formula.Cell(2, rowDcfAdj))), TagOutput)
	w.value(1, rowDcfShares, "Diluted Shares Outstanding (mm)", TagNone)
	w.formula(2, rowDcfShares, formula.Name("Shares"), TagNumber)
	w.value(1, rowDcfPrice, "Implied Price per Share", TagNone)
	w.formula(2, rowDcfPrice, formula.Div(
		formula.Ref(formula.Cell(2, rowDcfEquity)),
		formula.Ref(formula.Cell(2, rowDcfShares))), TagPrice)

	w.value(1, 25, "Quality Checks", TagSubheader)
	w.value(1, rowDcfChkCoE, "Equity Premium over Debt (CoE - CoD)", TagNone)
	chkCoE := w.formula(2, rowDcfChkCoE, formula.Sub(
		formula.Name("CoE"), formula.Name("CoD_at")), TagPercent)
	w.value(1, rowDcfChkG, "WACC Margin over Growth (WACC - g)", TagNone)
	chkG := w.formula(2, rowDcfChkG, formula.Sub(
		formula.Name("WACC"), formula.Name("g_term")), TagPercent)

	if err := w.done(); err != nil {
		return err
	}
	dc.check(SheetDCF, "B26", "Cost of equity exceeds after-tax cost of debt", chkCoE, "positive")
	dc.check(SheetDCF, "B27", "WACC exceeds terminal growth", chkG, "positive")
	return nil
}

// sensitivityTab writes the two solver-computed grids as literal values.
// Each cell is a full model recomputation at its axis pair, which no
// portable sheet formula can express, so the grid trades liveness for
// correctness.
func (dc *dcfBuild) sensitivityTab() error {
	w, err := newTab(dc.sink, dc.names.res, SheetSensitivity)
	if err != nil {
		return err
	}
	w.width(1, 1, 20)
	w.width(2, 8, 12)
	w.value(1, 1, "Sensitivity Analysis", TagHeader)
	w.merge(1, 1, 7, 1)

	w.value(1, 3, "Price per Share - WACC vs Terminal Growth", TagSubheader)
	w.grid(4, dc.priceGrid, TagPercent, TagPercent, TagPrice)

	w.value(1, 12, "Equity Value - WACC vs Exit Multiple", TagSubheader)
	w.grid(13, dc.equityGrid, TagPercent, TagMultiple, TagCalc)

	return w.done()
}

// summaryTab writes the one-page readout: headline outputs, a short
// time-series of the final forecast years, and a model check cell that
// stays positive only while both quality checks pass.
func (dc *dcfBuild) summaryTab() error {
	w, err := newTab(dc.sink, dc.names.res, SheetSummary)
	if err != nil {
		return err
	}
	n := dc.years
	w.width(1, 1, 34)
	w.width(2, 6, 14)
	w.value(1, 1, "DCF Model Summary", TagHeader)
	w.merge(1, 1, 3, 1)

	w.value(1, 3, "Key Outputs", TagSubheader)
	w.value(1, rowSumEV, "Enterprise Value (EV)", TagNone)
	w.formula(2, rowSumEV, formula.Ref(formula.Cell(2, rowDcfEV).On(SheetDCF)), TagOutput)
	w.value(1, rowSumEquity, "Equity Value", TagNone)
	w.formula(2, rowSumEquity, formula.Ref(formula.Cell(2, rowDcfEquity).On(SheetDCF)), TagOutput)
	w.value(1, rowSumPrice, "Implied Price per Share", TagNone)
	w.formula(2, rowSumPrice, formula.Ref(formula.Cell(2, rowDcfPrice).On(SheetDCF)), TagPrice)
	w.value(1, rowSumWACC, "WACC", TagNone)
	w.formula(2, rowSumWACC, formula.Name("WACC"), TagPercent)
	w.value(1, rowSumMethod, "Terminal Method", TagNone)
	w.value(2, rowSumMethod, string(dc.d.TerminalMethod), TagInputText)
	w.value(1, rowSumGrowth, "Terminal Growth (g)", TagNone)
	w.formula(2, rowSumGrowth, formula.Name("g_term"), TagPercent)
	w.value(1, rowSumExit, "Exit Multiple", TagNone)
	w.formula(2, rowSumExit, formula.Name("ExitMultiple"), TagMultiple)

	// Final stretch of the forecast, most recent years rightmost.
	w.value(1, 12, "Mini Time-Series (Final Years)", TagSubheader)
	shown := n
	if shown > 4 {
		shown = 4
	}
	series := []struct {
		label string
		row   int
	}{
		{"Revenue", rowFcRevenue},
		{"EBITDA", rowFcEBITDA},
		{"EBIT", rowFcEBIT},
		{"NOPAT", rowFcNOPAT},
		{"UFCF", rowFcUFCF},
	}
	for k := 0; k < shown; k++ {
		year := n - shown + 1 + k
		col := 2 + k
		w.value(col, rowSumSeries, fmt.Sprintf("Year %d", year), TagYear)
		for j, s := range series {
			w.formula(col, rowSumSeries+1+j, formula.Ref(
				formula.Cell(yearCol(year), s.row).On(SheetForecast)), TagCalc)
		}
	}
	for j, s := range series {
		w.value(1, rowSumSeries+1+j, s.label, TagNone)
	}

	w.value(1, rowSumCheck, "Model Check (min of quality checks)", TagNone)
	chk := w.formula(2, rowSumCheck, formula.Min(
		formula.Ref(formula.Cell(2, rowDcfChkCoE).On(SheetDCF)),
		formula.Ref(formula.Cell(2, rowDcfChkG).On(SheetDCF))), TagPercent)

	if err := w.done(); err != nil {
		return err
	}
	dc.check(SheetSummary, "B20", "Quality checks clear", chk, "positive")
	return nil
}
