package returns

import (
	"fmt"
	"math"
)

const (
	irrTolerance  = 1e-6
	irrMaxIter    = 100
	irrNewtonIter = 20

	irrRateFloor = -0.9999
	irrRateCeil  = 10.0
)

// IRRNotFoundError reports a root search that ran out of iterations or found
// no sign change in the bracket. Best carries the closest rate seen.
type IRRNotFoundError struct {
	Iterations int
	Best       float64
}

func (e *IRRNotFoundError) Error() string {
	return fmt.Sprintf("irr did not converge after %d iterations (best estimate %.6f)", e.Iterations, e.Best)
}

// npv discounts annual cash flows at rate r; cf[0] sits at year zero.
func npv(r float64, cf []float64) float64 {
	total := 0.0
	for i, c := range cf {
		total += c / math.Pow(1+r, float64(i))
	}
	return total
}

// npvPrime is the derivative of npv with respect to r.
func npvPrime(r float64, cf []float64) float64 {
	total := 0.0
	for i, c := range cf {
		if i == 0 {
			continue
		}
		total -= float64(i) * c / math.Pow(1+r, float64(i+1))
	}
	return total
}

// IRR solves npv(r) = 0 for annual cash flows to 1e-6 rate precision.
//
// Newton's method runs first from a 10% seed; if it does not settle, a
// bisection over [-99.99%, 1000%] finishes the job. The combined budget is
// 100 iterations; exhausting it, or finding no sign change in the bracket
// (as with all-positive flows), fails with IRRNotFoundError rather than
// returning a spurious root.
func IRR(cf []float64) (float64, error) {
	if len(cf) < 2 {
		return 0, &IRRNotFoundError{Iterations: 0, Best: 0}
	}

	// NPV-space tolerance, kept well under rate tolerance times the typical
	// NPV slope so an early function-value exit cannot mask rate error.
	scale := 0.0
	for _, c := range cf {
		scale += math.Abs(c)
	}
	fTol := 1e-8 * math.Max(1, scale)

	iterations := 0
	best := 0.0
	bestScore := math.Inf(1)
	eval := func(r float64) float64 {
		v := npv(r, cf)
		if s := math.Abs(v); s < bestScore {
			bestScore = s
			best = r
		}
		return v
	}

	// Newton phase.
	r := 0.1
	for i := 0; i < irrNewtonIter && iterations < irrMaxIter; i++ {
		iterations++
		f := eval(r)
		if math.Abs(f) <= fTol {
			return r, nil
		}
		d := npvPrime(r, cf)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		next := r - f/d
		if next <= -1 {
			next = (r - 1) / 2
		}
		if math.Abs(next-r) < irrTolerance && math.Abs(eval(next)) <= fTol {
			return next, nil
		}
		r = next
	}

	// Bisection phase.
	lo, hi := irrRateFloor, irrRateCeil
	flo, fhi := eval(lo), eval(hi)
	if flo == 0 {
		return lo, nil
	}
	if fhi == 0 {
		return hi, nil
	}
	if flo*fhi > 0 {
		found := false
		prev, fprev := lo, flo
		for x := lo + 0.5; x <= hi && !found; x += 0.5 {
			fx := eval(x)
			if fprev*fx <= 0 {
				lo, flo = prev, fprev
				hi = x
				found = true
			}
			prev, fprev = x, fx
		}
		if !found {
			return 0, &IRRNotFoundError{Iterations: iterations, Best: best}
		}
	}
	for iterations < irrMaxIter {
		iterations++
		mid := (lo + hi) / 2
		fmid := eval(mid)
		if math.Abs(fmid) <= fTol || (hi-lo)/2 < irrTolerance {
			return mid, nil
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, &IRRNotFoundError{Iterations: iterations, Best: best}
}
