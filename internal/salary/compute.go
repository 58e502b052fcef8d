package salary

import "github.com/shopspring/decimal"

// OvertimeAmount returns the supplied amount, or Hours * Rate when no
// amount was supplied.
func (o Overtime) OvertimeAmount() decimal.Decimal {
	if !o.Amount.IsZero() {
		return o.Amount
	}
	return o.Hours.Mul(o.Rate)
}

// ComputeTotals rewrites the overtime amount, gross, total deductions and
// net from the salary components. It must run before RefreshPaymentState
// on every save.
func (r *Record) ComputeTotals() {
	r.Overtime.Amount = r.Overtime.OvertimeAmount()
	r.GrossSalary = r.BaseSalary.Add(r.Bonus).Add(r.Overtime.Amount)
	r.TotalDeductions = r.Deductions.Other
	r.NetSalary = r.GrossSalary.Sub(r.TotalDeductions)
}
