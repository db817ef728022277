// Package workbook assembles complete LBO and DCF models as ordered write
// streams against an abstract sink. The assembler owns layout, formulas and
// named ranges; a sink only materializes cells, so the same build drives the
// xlsx writer in production and an in-memory recorder in tests.
package workbook

// StyleTag names the visual role of a cell. The tag set mirrors the house
// format sheet: blue inputs, black calculations, green outputs, grey
// banners. Sinks map tags to concrete fonts, fills and number formats; the
// assembler never deals in points or color codes.
type StyleTag string

const (
	TagNone        StyleTag = ""
	TagInput       StyleTag = "input"
	TagInputText   StyleTag = "input_text"
	TagCalc        StyleTag = "calc"
	TagOutput      StyleTag = "output"
	TagPercentOut  StyleTag = "percent_output"
	TagMultipleOut StyleTag = "multiple_output"
	TagHeader      StyleTag = "header"
	TagSubheader   StyleTag = "subheader"
	TagPercent     StyleTag = "percent"
	TagMultiple    StyleTag = "multiple"
	TagYear        StyleTag = "year"
	TagNumber      StyleTag = "number"
	TagPrice       StyleTag = "price"
	TagFactor      StyleTag = "factor"
)

// Sink receives one workbook's content in build order. Cell coordinates are
// A1-style and column spans are letter pairs, matching the xlsx vocabulary.
//
// The assembler reports the first sink error and stops; it never calls
// Finalize. Committing a finished workbook is the caller's decision, so a
// failed build can be discarded without a half-written artifact.
type Sink interface {
	// AddSheet appends a worksheet. Sheets appear in call order.
	AddSheet(name string) error

	// SetColWidth sizes the columns from through to, inclusive.
	SetColWidth(sheet, from, to string, width float64) error

	// WriteValue stores a literal cell value.
	WriteValue(sheet, cell string, value interface{}, tag StyleTag) error

	// WriteFormula stores a formula cell. The formula arrives rendered,
	// leading "=" included, with every named token already defined.
	WriteFormula(sheet, cell, formula string, tag StyleTag) error

	// MergeRange merges a rectangular span like "A1:E1".
	MergeRange(sheet, span string) error

	// DefineName binds a workbook-level defined name to an absolute
	// target like "Assumptions!$B$5".
	DefineName(name, refersTo string) error

	// Finalize commits the workbook.
	Finalize() error
}
