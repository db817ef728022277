package workbook

import (
	"fmt"
	"strings"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/formula"
	"finmodel/pkg/core/sensitivity"
	"finmodel/pkg/models"
)

// Worksheet names. Formulas hold these as cross-sheet qualifiers, so they
// are fixed vocabulary, not presentation.
const (
	SheetAssumptions = "Assumptions"
	SheetSourcesUses = "Sources_Uses"
	SheetProFormaBS  = "ProForma_BS"
	SheetForecast    = "Forecast_FCF"
	SheetDebt        = "DebtSchedule"
	SheetReturns     = "Returns"
	SheetDCF         = "DCF"
	SheetSensitivity = "Sensitivity"
	SheetSummary     = "Summary"
)

// Flags a build attaches to its summary instead of failing.
const (
	FlagEquityWipedOut  = "exit equity value is negative; sponsor equity is wiped out"
	FlagBankOutstanding = "bank debt still outstanding at exit; ending balance nets against exit proceeds"
)

// Assembler builds complete model workbooks against a sink. It owns the
// layout and every formula; the sink only materializes cells.
type Assembler struct {
	sink Sink
}

func NewAssembler(sink Sink) *Assembler {
	return &Assembler{sink: sink}
}

// Build dispatches on the document's model type. The sink is never
// finalized here; on error the caller discards it, on success the caller
// decides when to commit.
func (b *Assembler) Build(doc *assumption.Document) (*models.RunSummary, error) {
	switch models.ModelType(doc.ModelType) {
	case models.ModelTypeLBO:
		return b.BuildLBO(doc.Company, doc.Operating)
	case models.ModelTypeDCF:
		return b.BuildDCF(doc.Company, doc.Operating, doc.DCF)
	default:
		return nil, &assumption.InvalidAssumptionError{
			Field:  "model_type",
			Reason: fmt.Sprintf("unknown model type %q", doc.ModelType),
		}
	}
}

// yearCol returns the column of 1-based forecast year i. Year columns
// start in B on every multi-year tab.
func yearCol(i int) int { return 1 + i }

// =============================================================================
// TAB WRITER
// =============================================================================

// tabWriter wraps one sheet with a sticky error so a tab layout reads as a
// straight-line script. The first failure wins; later calls are no-ops.
type tabWriter struct {
	sink  Sink
	res   *formula.Resolver
	sheet string
	err   error
}

func newTab(sink Sink, res *formula.Resolver, sheet string) (*tabWriter, error) {
	if err := sink.AddSheet(sheet); err != nil {
		return nil, err
	}
	return &tabWriter{sink: sink, res: res, sheet: sheet}, nil
}

func (w *tabWriter) done() error { return w.err }

func (w *tabWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *tabWriter) width(fromCol, toCol int, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.sink.SetColWidth(w.sheet, formula.ColumnLetter(fromCol), formula.ColumnLetter(toCol), width)
}

func (w *tabWriter) merge(fromCol, fromRow, toCol, toRow int) {
	if w.err != nil {
		return
	}
	span := formula.Span(formula.Cell(fromCol, fromRow), formula.Cell(toCol, toRow))
	w.err = w.sink.MergeRange(w.sheet, span.String())
}

func (w *tabWriter) value(col, row int, v interface{}, tag StyleTag) {
	if w.err != nil {
		return
	}
	w.err = w.sink.WriteValue(w.sheet, formula.Cell(col, row).String(), v, tag)
}

// formula renders e against the build's resolver and writes it. The
// rendered string is returned so call sites can register it as a check
// cell without rendering twice.
func (w *tabWriter) formula(col, row int, e formula.Expr, tag StyleTag) string {
	if w.err != nil {
		return ""
	}
	f, err := formula.Render(e, w.res)
	if err != nil {
		w.err = err
		return ""
	}
	w.err = w.sink.WriteFormula(w.sheet, formula.Cell(col, row).String(), f, tag)
	return f
}

// yearHeader writes the row-3 banner every multi-year tab shares.
func (w *tabWriter) yearHeader(years int) {
	w.value(1, 3, "Line Item", TagSubheader)
	for i := 1; i <= years; i++ {
		w.value(yearCol(i), 3, fmt.Sprintf("Year %d", i), TagYear)
	}
}

// grid writes axis headers and the cell block with the column header on
// topRow and data rows below it.
func (w *tabWriter) grid(topRow int, g *sensitivity.Grid, rowTag, colTag, cellTag StyleTag) {
	for j, cv := range g.ColValues {
		w.value(2+j, topRow, cv, colTag)
	}
	for i, rv := range g.RowValues {
		w.value(1, topRow+1+i, rv, rowTag)
		for j := range g.ColValues {
			w.value(2+j, topRow+1+i, g.Cells[i][j], cellTag)
		}
	}
}

// =============================================================================
// NAME TABLE
// =============================================================================

// nameTable keeps the formula resolver and the sink's defined names in
// lockstep: every name is registered on both or neither.
type nameTable struct {
	sink Sink
	res  *formula.Resolver
}

func newNameTable(sink Sink) *nameTable {
	return &nameTable{sink: sink, res: formula.NewResolver()}
}

func (n *nameTable) define(name string, rng formula.RangeRef) error {
	if err := n.res.Define(name, rng); err != nil {
		return err
	}
	target, err := n.res.Resolve(name)
	if err != nil {
		return err
	}
	return n.sink.DefineName(name, target.String())
}

func (n *nameTable) defineCell(name string, c formula.CellRef) error {
	return n.define(name, formula.Span(c, c))
}

// ranges exports the table for the run summary, in definition order.
func (n *nameTable) ranges() []models.NamedRange {
	var out []models.NamedRange
	for _, name := range n.res.Names() {
		rng, err := n.res.Resolve(name)
		if err != nil {
			continue
		}
		sheet := rng.From.Sheet
		out = append(out, models.NamedRange{
			Name:  name,
			Sheet: sheet,
			Range: strings.TrimPrefix(rng.String(), sheet+"!"),
		})
	}
	return out
}

// =============================================================================
// ASSUMPTIONS TAB
// =============================================================================

// kindTag maps an assumption kind to its cell style.
func kindTag(k assumption.ValueKind) StyleTag {
	switch k {
	case assumption.KindMoney:
		return TagInput
	case assumption.KindPercent:
		return TagPercent
	case assumption.KindMultiple:
		return TagMultiple
	case assumption.KindYear:
		return TagYear
	case assumption.KindNumber:
		return TagNumber
	case assumption.KindText:
		return TagInputText
	default:
		return TagNone
	}
}

// writeAssumptions lays out the registry's sections at fixed banner rows,
// defines one workbook name per named entry, and writes derived rows as
// formulas from the supplied map so the sheet recomputes on input edits.
func writeAssumptions(sink Sink, names *nameTable, title string, reg *assumption.Registry, bannerRows []int, derived map[string]formula.Expr) error {
	sections := reg.Sections()
	if len(sections) != len(bannerRows) {
		return fmt.Errorf("workbook: %d assumption sections, %d banner rows", len(sections), len(bannerRows))
	}

	w, err := newTab(sink, names.res, SheetAssumptions)
	if err != nil {
		return err
	}
	w.width(1, 1, 28)
	w.width(2, 2, 16)
	w.width(3, 5, 14)
	w.value(1, 1, title, TagHeader)
	w.merge(1, 1, 5, 1)

	for si, sec := range sections {
		banner := bannerRows[si]
		w.value(1, banner, sec.Title, TagSubheader)
		for i, e := range sec.Entries {
			row := banner + 1 + i
			w.value(1, row, e.Label, TagNone)
			if e.Name != "" && w.err == nil {
				w.fail(names.defineCell(e.Name, formula.Cell(2, row).On(SheetAssumptions)))
			}
			switch {
			case w.err != nil:
			case e.Derived:
				expr, ok := derived[e.Name]
				if !ok {
					w.fail(fmt.Errorf("workbook: derived assumption %q has no formula", e.Name))
				} else {
					w.formula(2, row, expr, kindTag(e.Kind))
				}
			case e.Kind == assumption.KindText:
				w.value(2, row, e.Text, TagInputText)
			default:
				w.value(2, row, e.Value, kindTag(e.Kind))
			}
		}
	}
	return w.done()
}

// =============================================================================
// FORECAST TAB (shared by both model families)
// =============================================================================

// Forecast_FCF row map. Every tab that links into the forecast uses these.
const (
	rowFcRevenue = 4
	rowFcGrowth  = 5
	rowFcEBITDA  = 6
	rowFcDA      = 7
	rowFcEBIT    = 8
	rowFcTaxes   = 9
	rowFcNOPAT   = 10
	rowFcCapex   = 11
	rowFcDNWC    = 12
	rowFcUFCF    = 13
)

// writeForecast lays out the operating build-down, year 1 chaining off the
// Rev0 input and every later year off its predecessor. Taxes follow EBIT
// unclamped. The UFCF row is exported as FCFF_Row.
func writeForecast(sink Sink, names *nameTable, years int) error {
	w, err := newTab(sink, names.res, SheetForecast)
	if err != nil {
		return err
	}
	last := yearCol(years)
	w.width(1, 1, 26)
	w.width(2, last, 14)
	w.value(1, 1, "Operating Forecast & Unlevered Free Cash Flow", TagHeader)
	w.merge(1, 1, last, 1)
	w.yearHeader(years)

	w.value(1, rowFcRevenue, "Revenue", TagNone)
	w.value(1, rowFcGrowth, "Revenue Growth %", TagNone)
	w.value(1, rowFcEBITDA, "EBITDA", TagNone)
	w.value(1, rowFcDA, "D&A", TagNone)
	w.value(1, rowFcEBIT, "EBIT", TagNone)
	w.value(1, rowFcTaxes, "Taxes", TagNone)
	w.value(1, rowFcNOPAT, "NOPAT", TagNone)
	w.value(1, rowFcCapex, "CapEx", TagNone)
	w.value(1, rowFcDNWC, "Change in NWC", TagNone)
	w.value(1, rowFcUFCF, "Unlevered FCF", TagNone)

	for i := 1; i <= years; i++ {
		c := yearCol(i)
		prevRev := formula.Expr(formula.Name("Rev0"))
		if i > 1 {
			prevRev = formula.Ref(formula.Cell(c-1, rowFcRevenue))
		}
		rev := formula.Ref(formula.Cell(c, rowFcRevenue))

		w.formula(c, rowFcRevenue, formula.Mul(prevRev, formula.Add(formula.Num(1), formula.Name("g_rev"))), TagCalc)
		w.formula(c, rowFcGrowth, formula.Sub(formula.Div(rev, prevRev), formula.Num(1)), TagPercent)
		w.formula(c, rowFcEBITDA, formula.Mul(rev, formula.Name("EBITDA_m")), TagCalc)
		w.formula(c, rowFcDA, formula.Mul(rev, formula.Name("DA_pct")), TagCalc)
		w.formula(c, rowFcEBIT, formula.Sub(
			formula.Ref(formula.Cell(c, rowFcEBITDA)),
			formula.Ref(formula.Cell(c, rowFcDA))), TagCalc)
		w.formula(c, rowFcTaxes, formula.Mul(
			formula.Ref(formula.Cell(c, rowFcEBIT)), formula.Name("TaxRate")), TagCalc)
		w.formula(c, rowFcNOPAT, formula.Sub(
			formula.Ref(formula.Cell(c, rowFcEBIT)),
			formula.Ref(formula.Cell(c, rowFcTaxes))), TagCalc)
		w.formula(c, rowFcCapex, formula.Mul(rev, formula.Name("Capex_pct")), TagCalc)
		w.formula(c, rowFcDNWC, formula.Mul(
			formula.Sub(rev, prevRev), formula.Name("NWC_pct")), TagCalc)
		w.formula(c, rowFcUFCF, formula.Sub(formula.Sub(formula.Add(
			formula.Ref(formula.Cell(c, rowFcNOPAT)),
			formula.Ref(formula.Cell(c, rowFcDA))),
			formula.Ref(formula.Cell(c, rowFcCapex))),
			formula.Ref(formula.Cell(c, rowFcDNWC))), TagOutput)
	}

	if w.err == nil {
		w.fail(names.define("FCFF_Row", formula.Span(
			formula.Cell(2, rowFcUFCF).On(SheetForecast),
			formula.Cell(last, rowFcUFCF))))
	}
	return w.done()
}
