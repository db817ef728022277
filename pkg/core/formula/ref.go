package formula

import (
	"strconv"
	"strings"
)

// ColumnLetter converts a 1-based column index to A1-style letters
// (1 -> "A", 27 -> "AA"). Indexes below 1 return the empty string.
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var buf [4]byte
	i := len(buf)
	for col > 0 {
		col--
		i--
		buf[i] = byte('A' + col%26)
		col /= 26
	}
	return string(buf[i:])
}

// CellRef identifies one worksheet cell in A1 notation. An empty Sheet
// renders a same-sheet reference.
type CellRef struct {
	Sheet  string
	Col    int // 1-based
	Row    int // 1-based
	ColAbs bool
	RowAbs bool
}

// Cell builds a relative same-sheet reference.
func Cell(col, row int) CellRef {
	return CellRef{Col: col, Row: row}
}

// On returns the reference anchored to sheet.
func (c CellRef) On(sheet string) CellRef {
	c.Sheet = sheet
	return c
}

// Abs returns the reference with both axes locked ($B$4).
func (c CellRef) Abs() CellRef {
	c.ColAbs = true
	c.RowAbs = true
	return c
}

func (c CellRef) String() string {
	var sb strings.Builder
	if c.Sheet != "" {
		sb.WriteString(quoteSheet(c.Sheet))
		sb.WriteByte('!')
	}
	sb.WriteString(c.local())
	return sb.String()
}

// local renders the coordinate without any sheet qualifier.
func (c CellRef) local() string {
	var sb strings.Builder
	if c.ColAbs {
		sb.WriteByte('$')
	}
	sb.WriteString(ColumnLetter(c.Col))
	if c.RowAbs {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(c.Row))
	return sb.String()
}

// RangeRef is a rectangular cell range. A range whose corners coincide
// renders as the single cell.
type RangeRef struct {
	From CellRef
	To   CellRef
}

// Span builds a range between two corners. The sheet of from wins when the
// corners disagree.
func Span(from, to CellRef) RangeRef {
	if to.Sheet == "" {
		to.Sheet = from.Sheet
	}
	return RangeRef{From: from, To: to}
}

// Abs returns the range with both corners fully locked.
func (r RangeRef) Abs() RangeRef {
	r.From = r.From.Abs()
	r.To = r.To.Abs()
	return r
}

// IsCell reports whether the range covers exactly one cell.
func (r RangeRef) IsCell() bool {
	return r.From.Col == r.To.Col && r.From.Row == r.To.Row
}

func (r RangeRef) String() string {
	if r.IsCell() {
		return r.From.String()
	}
	var sb strings.Builder
	if r.From.Sheet != "" {
		sb.WriteString(quoteSheet(r.From.Sheet))
		sb.WriteByte('!')
	}
	sb.WriteString(r.From.local())
	sb.WriteByte(':')
	sb.WriteString(r.To.local())
	return sb.String()
}

// quoteSheet wraps sheet names that need quoting in A1 references.
func quoteSheet(name string) string {
	plain := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch == '_':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				plain = false
			}
		default:
			plain = false
		}
		if !plain {
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
