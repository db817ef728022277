// Package debt builds the multi-year amortization waterfall: a cash-sweep
// bank tranche paid down from unlevered free cash flow, and an interest-only
// mezzanine tranche repaid as a bullet in the final year.
package debt

import (
	"fmt"

	"finmodel/pkg/core/assumption"
)

// Policy selects how a tranche amortizes.
type Policy string

const (
	PolicyCashSweep Policy = "cashSweep"
	PolicyBullet    Policy = "bulletAtMaturity"
)

const (
	TrancheBank      = "bank"
	TrancheMezzanine = "mezzanine"
)

// NegativeDebtBalanceError reports a waterfall year that would push a
// tranche outside its feasible balance range, which signals an assumption
// inconsistency such as a negative-UFCF year under an active cash sweep.
type NegativeDebtBalanceError struct {
	Tranche string
	Year    int // 1-based forecast year
	Balance float64
}

func (e *NegativeDebtBalanceError) Error() string {
	return fmt.Sprintf("debt waterfall: tranche %q year %d reaches impossible balance %g", e.Tranche, e.Year, e.Balance)
}

// Tranche is one facility's completed schedule. Index i is forecast year
// i+1. Beginning balance of a year equals the prior year's ending balance;
// year 1 begins at the draw from Sources & Uses.
type Tranche struct {
	Name      string
	Rate      float64
	Policy    Policy
	Beginning []float64
	Interest  []float64
	Repayment []float64
	Ending    []float64

	// RepaidInYear is the 1-based year the balance first hit zero, or 0 if
	// the tranche is still outstanding after the final forecast year.
	RepaidInYear int
}

// Outstanding reports whether the tranche still carries balance at exit.
func (tr *Tranche) Outstanding() bool { return tr.RepaidInYear == 0 }

// Schedule is the waterfall across both tranches for one run.
type Schedule struct {
	Years int
	Bank  Tranche
	Mezz  Tranche
}

// Build runs the waterfall over the forecast UFCF vector. The bank tranche
// sweeps MIN(beginning balance, UFCF) each year; the mezzanine tranche pays
// interest only and repays its full beginning balance in year N. Interest
// accrues on the beginning balance and is reported, never capitalized.
func Build(a assumption.CompanyAssumptions, ufcf []float64) (*Schedule, error) {
	n := a.HoldPeriodYears
	if len(ufcf) != n {
		return nil, fmt.Errorf("debt waterfall: ufcf has %d years, hold period is %d", len(ufcf), n)
	}

	s := &Schedule{Years: n}
	var err error
	s.Bank, err = runTranche(TrancheBank, a.BankDraw(), a.InterestBank, PolicyCashSweep, ufcf)
	if err != nil {
		return nil, err
	}
	s.Mezz, err = runTranche(TrancheMezzanine, a.MezzDraw(), a.InterestMezz, PolicyBullet, ufcf)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func runTranche(name string, draw, rate float64, policy Policy, ufcf []float64) (Tranche, error) {
	n := len(ufcf)
	tr := Tranche{
		Name:      name,
		Rate:      rate,
		Policy:    policy,
		Beginning: make([]float64, n),
		Interest:  make([]float64, n),
		Repayment: make([]float64, n),
		Ending:    make([]float64, n),
	}

	balance := draw
	repaid := balance == 0
	if repaid {
		tr.RepaidInYear = 1
	}
	for i := 0; i < n; i++ {
		if repaid {
			// Once retired a tranche stays at zero; no redraw is modeled.
			continue
		}

		beginning := balance
		repayment := 0.0
		switch policy {
		case PolicyCashSweep:
			repayment = min(beginning, ufcf[i])
		case PolicyBullet:
			if i == n-1 {
				repayment = beginning
			}
		}

		if repayment < 0 {
			return Tranche{}, &NegativeDebtBalanceError{Tranche: name, Year: i + 1, Balance: repayment}
		}
		ending := beginning - repayment
		if ending < 0 {
			return Tranche{}, &NegativeDebtBalanceError{Tranche: name, Year: i + 1, Balance: ending}
		}

		tr.Beginning[i] = beginning
		tr.Interest[i] = beginning * rate
		tr.Repayment[i] = repayment
		tr.Ending[i] = ending

		balance = ending
		if ending == 0 {
			repaid = true
			tr.RepaidInYear = i + 1
		}
	}
	return tr, nil
}
