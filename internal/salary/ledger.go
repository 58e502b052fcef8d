package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

// SumPayments totals the ledger.
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// ApplyPayment appends p to the ledger and refreshes the payment state.
// The amount is not capped; callers validate it against PendingAmount.
func (r *Record) ApplyPayment(p Payment, now time.Time, editWindow time.Duration) {
	r.Payments = append(r.Payments, p)
	r.RefreshPaymentState(now, editWindow)
}

// RefreshPaymentState re-sums the ledger and derives the persisted status
// and pending amount from it. The edit lock is set the first time the
// record becomes paid and never moved afterwards. Cancelled records keep
// their status.
func (r *Record) RefreshPaymentState(now time.Time, editWindow time.Duration) {
	r.PaidAmount = SumPayments(r.Payments)

	if r.Status == StatusCancelled {
		r.PendingAmount = decimal.Max(r.NetSalary.Sub(r.PaidAmount), decimal.Zero)
		return
	}

	switch {
	case r.PaidAmount.GreaterThanOrEqual(r.NetSalary):
		r.Status = StatusPaid
		r.PendingAmount = decimal.Zero
		if r.EditLockExpiresAt == nil {
			expires := now.Add(editWindow)
			r.EditLockExpiresAt = &expires
		}
	case r.PaidAmount.IsPositive():
		r.Status = StatusPartiallyPaid
		r.PendingAmount = r.NetSalary.Sub(r.PaidAmount)
	default:
		r.Status = StatusPending
		r.PendingAmount = decimal.Max(r.NetSalary, decimal.Zero)
	}
}
