// Package returns assembles the sponsor's equity cash-flow vector for a
// leveraged deal and computes the headline metrics: IRR on the dated flows
// and the multiple on invested capital.
package returns

import (
	"fmt"

	"finmodel/pkg/core/assumption"
	"finmodel/pkg/core/debt"
	"finmodel/pkg/core/forecast"
)

// InvalidCapitalStructureError reports a structure with no positive sponsor
// equity, under which IRR and MOIC are undefined.
type InvalidCapitalStructureError struct {
	EquityInvested float64
}

func (e *InvalidCapitalStructureError) Error() string {
	return fmt.Sprintf("invalid capital structure: equity invested must be positive, got %g", e.EquityInvested)
}

// Result is the completed returns analysis for one run.
type Result struct {
	// EquityInvested is the sponsor check against the purchase price and
	// the MOIC denominator. InitialOutflow adds the transaction fees the
	// sponsor funds at close; it is the year-0 cash flow.
	EquityInvested float64
	InitialOutflow float64

	// CashFlows is indexed by year: 0 is the close, years 1..N-1 carry the
	// operating distribution (UFCF less the bank sweep), year N adds the
	// exit equity value on top.
	CashFlows []float64

	ExitEBITDA      float64
	ExitEV          float64
	NetDebtAtExit   float64
	ExitEquityValue float64

	IRR  float64
	MOIC float64

	// EquityWipedOut marks a negative exit equity value; the value is kept
	// as computed, never clamped. BankOutstandingAtExit marks a bank
	// balance the sweep did not clear by year N; it is netted against exit
	// proceeds like the mezzanine bullet.
	EquityWipedOut        bool
	BankOutstandingAtExit bool
}

// Analyze computes exit proceeds, the equity cash-flow vector, IRR and MOIC.
//
// Net debt at exit is the bank ending balance plus the mezzanine bullet,
// both redeemed out of exit proceeds. The exit enterprise value is terminal
// EBITDA times the exit multiple.
func Analyze(a assumption.CompanyAssumptions, f *forecast.Table, s *debt.Schedule) (*Result, error) {
	equity := a.EquityInvested()
	if equity <= 0 {
		return nil, &InvalidCapitalStructureError{EquityInvested: equity}
	}
	n := f.Years
	if s.Years != n {
		return nil, fmt.Errorf("returns: debt schedule spans %d years, forecast %d", s.Years, n)
	}

	res := &Result{
		EquityInvested: equity,
		InitialOutflow: equity + a.TxFees,
		ExitEBITDA:     f.TerminalEBITDA(),
	}
	res.ExitEV = res.ExitEBITDA * a.ExitMultiple
	res.NetDebtAtExit = s.Bank.Ending[n-1] + s.Mezz.Repayment[n-1]
	res.ExitEquityValue = res.ExitEV - res.NetDebtAtExit
	res.EquityWipedOut = res.ExitEquityValue < 0
	res.BankOutstandingAtExit = s.Bank.Outstanding()

	res.CashFlows = make([]float64, n+1)
	res.CashFlows[0] = -res.InitialOutflow
	for i := 0; i < n; i++ {
		res.CashFlows[i+1] = f.UFCF[i] - s.Bank.Repayment[i]
	}
	res.CashFlows[n] += res.ExitEquityValue

	irr, err := IRR(res.CashFlows)
	if err != nil {
		return nil, err
	}
	res.IRR = irr
	res.MOIC = res.ExitEquityValue / equity
	return res, nil
}
