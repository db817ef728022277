package formula

import (
	"fmt"
)

// UnresolvedReferenceError reports a formula token that names a range the
// workbook never defined.
type UnresolvedReferenceError struct {
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved named range %q", e.Name)
}

// Resolver is the named-range registry for one workbook build. Names are
// defined once, before any formula that uses them renders, so a bad token
// fails the build instead of leaving #NAME? cells in the output.
type Resolver struct {
	targets map[string]RangeRef
	order   []string
}

func NewResolver() *Resolver {
	return &Resolver{targets: make(map[string]RangeRef)}
}

// Define registers name as a workbook-level defined name bound to rng. The
// target is stored fully absolute; it must carry a sheet qualifier.
func (r *Resolver) Define(name string, rng RangeRef) error {
	if err := checkName(name); err != nil {
		return err
	}
	if rng.From.Sheet == "" {
		return fmt.Errorf("named range %q: target has no sheet", name)
	}
	if _, ok := r.targets[name]; ok {
		return fmt.Errorf("named range %q defined twice", name)
	}
	r.targets[name] = rng.Abs()
	r.order = append(r.order, name)
	return nil
}

// DefineCell registers a single-cell name.
func (r *Resolver) DefineCell(name string, cell CellRef) error {
	return r.Define(name, Span(cell, cell))
}

// Has reports whether name is defined.
func (r *Resolver) Has(name string) bool {
	_, ok := r.targets[name]
	return ok
}

// Resolve returns the absolute target of name.
func (r *Resolver) Resolve(name string) (RangeRef, error) {
	rng, ok := r.targets[name]
	if !ok {
		return RangeRef{}, &UnresolvedReferenceError{Name: name}
	}
	return rng, nil
}

// Names returns every defined name in definition order.
func (r *Resolver) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// checkName enforces the defined-name rules the xlsx format shares with
// Sheets: starts with a letter or underscore, continues with letters,
// digits, underscores or periods, and never collides with an A1 cell
// coordinate like B5.
func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("named range: empty name")
	}
	if len(name) > 255 {
		return fmt.Errorf("named range %q: name too long", name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch == '_':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '.'):
		default:
			return fmt.Errorf("named range %q: invalid character %q", name, ch)
		}
	}
	if looksLikeCell(name) {
		return fmt.Errorf("named range %q: collides with a cell reference", name)
	}
	return nil
}

// looksLikeCell reports whether s parses as a column-letters-then-row-number
// coordinate inside the sheet grid (columns A..XFD, rows 1..1048576).
func looksLikeCell(s string) bool {
	i := 0
	col := 0
	for i < len(s) {
		ch := s[i]
		if ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if ch < 'A' || ch > 'Z' {
			break
		}
		col = col*26 + int(ch-'A') + 1
		i++
	}
	if i == 0 || i == len(s) || i > 3 || col > 16384 {
		return false
	}
	row := 0
	for ; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return false
		}
		row = row*10 + int(ch-'0')
		if row > 1048576 {
			return false
		}
	}
	return row >= 1
}
