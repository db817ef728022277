// Package excel materializes assembled workbook layouts into .xlsx files
// through excelize. The sink is write-only during a build; Finalize commits
// the finished workbook to its destination in one step so a failed build
// never leaves a partial file behind.
package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"finmodel/pkg/core/workbook"
)

// House palette. Inputs render blue, outputs bold green on a light green
// fill, section bands light grey.
const (
	colorInput      = "1F4E79"
	colorOutputText = "2E7D32"
	colorOutputFill = "E8F5E9"
	colorHeaderFill = "F2F2F2"
	colorSubhdrFill = "D9D9D9"
	colorBlack      = "000000"
)

const fontName = "Calibri"

// Sink writes one workbook through excelize. Styles are created lazily the
// first time a tag appears and cached for the life of the file.
type Sink struct {
	file   *excelize.File
	path   string
	out    io.Writer
	first  string
	sheets int
	styles map[workbook.StyleTag]int
}

var _ workbook.Sink = (*Sink)(nil)

func newSink() *Sink {
	return &Sink{
		file:   excelize.NewFile(),
		styles: make(map[workbook.StyleTag]int),
	}
}

// NewFileSink returns a sink that saves the workbook to path on Finalize.
func NewFileSink(path string) *Sink {
	s := newSink()
	s.path = path
	return s
}

// NewWriterSink returns a sink that streams the finished workbook to w on
// Finalize.
func NewWriterSink(w io.Writer) *Sink {
	s := newSink()
	s.out = w
	return s
}

// File exposes the underlying workbook for read-back and verification.
func (s *Sink) File() *excelize.File { return s.file }

// Close releases the workbook's resources without saving. Safe to call
// after Finalize.
func (s *Sink) Close() error { return s.file.Close() }

// AddSheet appends a worksheet. The first call renames the default sheet
// excelize creates with the file, so sheet order follows call order exactly.
func (s *Sink) AddSheet(name string) error {
	if s.sheets == 0 {
		if err := s.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
		s.first = name
		s.sheets++
		return nil
	}
	if _, err := s.file.NewSheet(name); err != nil {
		return err
	}
	s.sheets++
	return nil
}

func (s *Sink) SetColWidth(sheet, from, to string, width float64) error {
	return s.file.SetColWidth(sheet, from, to, width)
}

func (s *Sink) WriteValue(sheet, cell string, value interface{}, tag workbook.StyleTag) error {
	if err := s.file.SetCellValue(sheet, cell, value); err != nil {
		return err
	}
	return s.style(sheet, cell, tag)
}

func (s *Sink) WriteFormula(sheet, cell, formula string, tag workbook.StyleTag) error {
	if err := s.file.SetCellFormula(sheet, cell, formula); err != nil {
		return err
	}
	return s.style(sheet, cell, tag)
}

// MergeRange merges a span given in A1 range notation ("A1:E1").
func (s *Sink) MergeRange(sheet, span string) error {
	from, to, ok := strings.Cut(span, ":")
	if !ok {
		return fmt.Errorf("excel: merge span %q is not a range", span)
	}
	return s.file.MergeCell(sheet, from, to)
}

func (s *Sink) DefineName(name, refersTo string) error {
	return s.file.SetDefinedName(&excelize.DefinedName{
		Name:     name,
		RefersTo: refersTo,
		Scope:    "Workbook",
	})
}

// Finalize activates the first sheet and commits the workbook to its
// destination.
func (s *Sink) Finalize() error {
	if s.first != "" {
		idx, err := s.file.GetSheetIndex(s.first)
		if err != nil {
			return err
		}
		s.file.SetActiveSheet(idx)
	}
	if s.path != "" {
		return s.file.SaveAs(s.path)
	}
	if s.out != nil {
		_, err := s.file.WriteTo(s.out)
		return err
	}
	return fmt.Errorf("excel: sink has no destination")
}

func (s *Sink) style(sheet, cell string, tag workbook.StyleTag) error {
	if tag == workbook.TagNone {
		return nil
	}
	id, err := s.styleID(tag)
	if err != nil {
		return err
	}
	return s.file.SetCellStyle(sheet, cell, cell, id)
}

func (s *Sink) styleID(tag workbook.StyleTag) (int, error) {
	if id, ok := s.styles[tag]; ok {
		return id, nil
	}
	def := styleFor(tag)
	if def == nil {
		return 0, fmt.Errorf("excel: unknown style tag %q", tag)
	}
	id, err := s.file.NewStyle(def)
	if err != nil {
		return 0, err
	}
	s.styles[tag] = id
	return id, nil
}

// styleFor returns the style definition behind one tag, nil for tags the
// palette does not know.
func styleFor(tag workbook.StyleTag) *excelize.Style {
	switch tag {
	case workbook.TagInput:
		return &excelize.Style{Font: font(colorInput, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`$#,##0`)}
	case workbook.TagInputText:
		return &excelize.Style{Font: font(colorInput, 10, false), Alignment: align("left")}
	case workbook.TagCalc:
		return &excelize.Style{Font: font(colorBlack, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`$#,##0`)}
	case workbook.TagOutput:
		return &excelize.Style{Font: font(colorOutputText, 10, true), Fill: fill(colorOutputFill), Alignment: align("right"), Border: box(2), CustomNumFmt: numFmt(`$#,##0`)}
	case workbook.TagPercentOut:
		return &excelize.Style{Font: font(colorOutputText, 10, true), Fill: fill(colorOutputFill), Alignment: align("right"), Border: box(2), CustomNumFmt: numFmt(`0.0%`)}
	case workbook.TagMultipleOut:
		return &excelize.Style{Font: font(colorOutputText, 10, true), Fill: fill(colorOutputFill), Alignment: align("right"), Border: box(2), CustomNumFmt: numFmt(`0.0"x"`)}
	case workbook.TagHeader:
		return &excelize.Style{Font: font(colorBlack, 11, true), Fill: fill(colorHeaderFill), Alignment: align("center"), Border: box(1)}
	case workbook.TagSubheader:
		return &excelize.Style{Font: font(colorBlack, 10, true), Fill: fill(colorSubhdrFill), Alignment: align("left")}
	case workbook.TagPercent:
		return &excelize.Style{Font: font(colorBlack, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`0.0%`)}
	case workbook.TagMultiple:
		return &excelize.Style{Font: font(colorBlack, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`0.0"x"`)}
	case workbook.TagYear:
		return &excelize.Style{Font: font(colorBlack, 10, true), Alignment: align("center"), CustomNumFmt: numFmt(`0`)}
	case workbook.TagNumber:
		return &excelize.Style{Font: font(colorInput, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`0.00`)}
	case workbook.TagPrice:
		return &excelize.Style{Font: font(colorOutputText, 10, true), Fill: fill(colorOutputFill), Alignment: align("right"), Border: box(2), CustomNumFmt: numFmt(`$#,##0.00`)}
	case workbook.TagFactor:
		return &excelize.Style{Font: font(colorBlack, 10, false), Alignment: align("right"), CustomNumFmt: numFmt(`0.0000`)}
	}
	return nil
}

func font(color string, size float64, bold bool) *excelize.Font {
	return &excelize.Font{Family: fontName, Size: size, Bold: bold, Color: color}
}

func align(horizontal string) *excelize.Alignment {
	return &excelize.Alignment{Horizontal: horizontal, Vertical: "center"}
}

func fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func box(style int) []excelize.Border {
	sides := [4]string{"left", "top", "right", "bottom"}
	out := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		out = append(out, excelize.Border{Type: side, Color: colorBlack, Style: style})
	}
	return out
}

func numFmt(format string) *string { return &format }
