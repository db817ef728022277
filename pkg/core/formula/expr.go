package formula

import (
	"strconv"
	"strings"
)

// Expr is one node of a workbook formula. Expressions render to the
// portable subset shared by xlsx, Google Sheets import and LibreOffice:
// numeric literals, cell and range references, named ranges, the four
// arithmetic operators plus exponentiation, and the MIN and SUM functions.
type Expr interface {
	render(res *Resolver, minPrec int) (string, error)
}

// Render materializes the expression as a sheet formula string, leading "="
// included. Every named token in the tree must already be defined on res;
// an unknown name aborts the render with UnresolvedReferenceError.
func Render(e Expr, res *Resolver) (string, error) {
	body, err := e.render(res, 0)
	if err != nil {
		return "", err
	}
	return "=" + body, nil
}

const (
	precAdd  = 1
	precMul  = 2
	precPow  = 3
	precAtom = 9
)

// ----------------------------------------------------------------------------
// Leaves
// ----------------------------------------------------------------------------

type numExpr float64

// Num is a numeric literal.
func Num(v float64) Expr { return numExpr(v) }

func (n numExpr) render(_ *Resolver, minPrec int) (string, error) {
	s := strconv.FormatFloat(float64(n), 'g', -1, 64)
	if n < 0 && minPrec > precAdd {
		return "(" + s + ")", nil
	}
	return s, nil
}

type nameExpr string

// Name is a named-range token. The token itself stays in the rendered
// formula; the resolver only vouches that the workbook defines it.
func Name(name string) Expr { return nameExpr(name) }

func (n nameExpr) render(res *Resolver, _ int) (string, error) {
	if res == nil || !res.Has(string(n)) {
		return "", &UnresolvedReferenceError{Name: string(n)}
	}
	return string(n), nil
}

type refExpr CellRef

// Ref is a direct cell reference.
func Ref(c CellRef) Expr { return refExpr(c) }

func (r refExpr) render(_ *Resolver, _ int) (string, error) {
	return CellRef(r).String(), nil
}

type spanExpr RangeRef

// Rng is a direct range reference, for use inside SUM and MIN.
func Rng(r RangeRef) Expr { return spanExpr(r) }

func (r spanExpr) render(_ *Resolver, _ int) (string, error) {
	return RangeRef(r).String(), nil
}

// ----------------------------------------------------------------------------
// Operators
// ----------------------------------------------------------------------------

type binExpr struct {
	op   byte
	prec int
	l, r Expr
}

// Add renders l+r.
func Add(l, r Expr) Expr { return binExpr{'+', precAdd, l, r} }

// Sub renders l-r.
func Sub(l, r Expr) Expr { return binExpr{'-', precAdd, l, r} }

// Mul renders l*r.
func Mul(l, r Expr) Expr { return binExpr{'*', precMul, l, r} }

// Div renders l/r.
func Div(l, r Expr) Expr { return binExpr{'/', precMul, l, r} }

// Pow renders l^r.
func Pow(l, r Expr) Expr { return binExpr{'^', precPow, l, r} }

func (b binExpr) render(res *Resolver, minPrec int) (string, error) {
	l, err := b.l.render(res, b.prec)
	if err != nil {
		return "", err
	}
	r, err := b.r.render(res, b.prec+1)
	if err != nil {
		return "", err
	}
	s := l + string(b.op) + r
	if b.prec < minPrec {
		return "(" + s + ")", nil
	}
	return s, nil
}

type negExpr struct{ e Expr }

// Neg renders unary minus, parenthesizing compound operands.
func Neg(e Expr) Expr { return negExpr{e} }

func (n negExpr) render(res *Resolver, minPrec int) (string, error) {
	inner, err := n.e.render(res, precAtom)
	if err != nil {
		return "", err
	}
	s := "-" + inner
	if minPrec > precMul {
		return "(" + s + ")", nil
	}
	return s, nil
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

type callExpr struct {
	fn   string
	args []Expr
}

// Min renders MIN(args...).
func Min(args ...Expr) Expr { return callExpr{"MIN", args} }

// Sum renders SUM(args...).
func Sum(args ...Expr) Expr { return callExpr{"SUM", args} }

func (c callExpr) render(res *Resolver, _ int) (string, error) {
	var sb strings.Builder
	sb.WriteString(c.fn)
	sb.WriteByte('(')
	for i, a := range c.args {
		if i > 0 {
			sb.WriteByte(',')
		}
		s, err := a.render(res, 0)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	sb.WriteByte(')')
	return sb.String(), nil
}
