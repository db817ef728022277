package workbook

import (
	"fmt"
)

// OpKind discriminates recorded sink calls.
type OpKind string

const (
	OpSheet    OpKind = "sheet"
	OpWidth    OpKind = "width"
	OpValue    OpKind = "value"
	OpFormula  OpKind = "formula"
	OpMerge    OpKind = "merge"
	OpName     OpKind = "name"
	OpFinalize OpKind = "finalize"
)

// Op is one recorded sink call. Unused fields stay zero for a given kind.
type Op struct {
	Kind     OpKind
	Sheet    string
	Cell     string
	Value    interface{}
	Formula  string
	Tag      StyleTag
	Name     string
	RefersTo string
	From     string
	To       string
	Width    float64
	Span     string
}

// RecordingSink captures every sink call in order. Two builds from the same
// inputs must produce identical op streams; tests compare them directly.
type RecordingSink struct {
	ops       []Op
	finalized bool
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (r *RecordingSink) AddSheet(name string) error {
	r.ops = append(r.ops, Op{Kind: OpSheet, Sheet: name})
	return nil
}

func (r *RecordingSink) SetColWidth(sheet, from, to string, width float64) error {
	r.ops = append(r.ops, Op{Kind: OpWidth, Sheet: sheet, From: from, To: to, Width: width})
	return nil
}

func (r *RecordingSink) WriteValue(sheet, cell string, value interface{}, tag StyleTag) error {
	r.ops = append(r.ops, Op{Kind: OpValue, Sheet: sheet, Cell: cell, Value: value, Tag: tag})
	return nil
}

func (r *RecordingSink) WriteFormula(sheet, cell, formula string, tag StyleTag) error {
	r.ops = append(r.ops, Op{Kind: OpFormula, Sheet: sheet, Cell: cell, Formula: formula, Tag: tag})
	return nil
}

func (r *RecordingSink) MergeRange(sheet, span string) error {
	r.ops = append(r.ops, Op{Kind: OpMerge, Sheet: sheet, Span: span})
	return nil
}

func (r *RecordingSink) DefineName(name, refersTo string) error {
	r.ops = append(r.ops, Op{Kind: OpName, Name: name, RefersTo: refersTo})
	return nil
}

func (r *RecordingSink) Finalize() error {
	r.finalized = true
	r.ops = append(r.ops, Op{Kind: OpFinalize})
	return nil
}

// Finalized reports whether Finalize was called.
func (r *RecordingSink) Finalized() bool { return r.finalized }

// Ops returns the recorded calls in order.
func (r *RecordingSink) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Sheets returns the sheet names in creation order.
func (r *RecordingSink) Sheets() []string {
	var names []string
	for _, op := range r.ops {
		if op.Kind == OpSheet {
			names = append(names, op.Sheet)
		}
	}
	return names
}

// DefinedNames returns name -> target for every DefineName call.
func (r *RecordingSink) DefinedNames() map[string]string {
	out := make(map[string]string)
	for _, op := range r.ops {
		if op.Kind == OpName {
			out[op.Name] = op.RefersTo
		}
	}
	return out
}

// ValueAt returns the literal written to a cell.
func (r *RecordingSink) ValueAt(sheet, cell string) (interface{}, bool) {
	for _, op := range r.ops {
		if op.Kind == OpValue && op.Sheet == sheet && op.Cell == cell {
			return op.Value, true
		}
	}
	return nil, false
}

// FormulaAt returns the formula written to a cell.
func (r *RecordingSink) FormulaAt(sheet, cell string) (string, bool) {
	for _, op := range r.ops {
		if op.Kind == OpFormula && op.Sheet == sheet && op.Cell == cell {
			return op.Formula, true
		}
	}
	return "", false
}

// MustFormula is FormulaAt for tests that treat absence as fatal.
func (r *RecordingSink) MustFormula(sheet, cell string) (string, error) {
	f, ok := r.FormulaAt(sheet, cell)
	if !ok {
		return "", fmt.Errorf("no formula at %s!%s", sheet, cell)
	}
	return f, nil
}
