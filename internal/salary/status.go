package salary

import (
	"math"
	"time"
)

// DisplayStatusAt derives the status to show for a record of the given
// period at time now. Paid, cancelled and partially paid records are shown
// as stored; a pending record whose period is before the current month is
// overdue.
func DisplayStatusAt(status PersistedStatus, month Month, year int, now time.Time) DisplayStatus {
	switch status {
	case StatusPaid:
		return DisplayPaid
	case StatusCancelled:
		return DisplayCancelled
	case StatusPartiallyPaid:
		return DisplayPartiallyPaid
	}

	current := PeriodIndex(Month(now.Month()), now.Year())
	if PeriodIndex(month, year) < current {
		return DisplayOverdue
	}
	return DisplayPending
}

// DisplayStatus is DisplayStatusAt for r.
func (r *Record) DisplayStatus(now time.Time) DisplayStatus {
	return DisplayStatusAt(r.Status, r.Month, r.Year, now)
}

// CanEdit reports whether the record may be modified at now. Unpaid
// records are always editable; paid records only until EditLockExpiresAt.
// A paid record without a lock timestamp is treated as locked.
func (r *Record) CanEdit(now time.Time) bool {
	if r.Status != StatusPaid {
		return true
	}
	if r.EditLockExpiresAt == nil {
		return false
	}
	return !now.After(*r.EditLockExpiresAt)
}

// RemainingEditMinutes returns the minutes left in the edit window,
// rounded up and floored at zero, or nil when no window applies.
func (r *Record) RemainingEditMinutes(now time.Time) *int64 {
	if r.Status != StatusPaid || r.EditLockExpiresAt == nil {
		return nil
	}
	left := r.EditLockExpiresAt.Sub(now)
	var minutes int64
	if left > 0 {
		minutes = int64(math.Ceil(left.Minutes()))
	}
	return &minutes
}

// View is a record with its read-time derived fields.
type View struct {
	*Record
	CalculatedStatus  DisplayStatus `json:"calculatedStatus"`
	CanEdit           bool          `json:"canEdit"`
	RemainingEditTime *int64        `json:"remainingEditTime"`
}

// NewView derives the read-time fields of r at now.
func NewView(r *Record, now time.Time) View {
	return View{
		Record:            r,
		CalculatedStatus:  r.DisplayStatus(now),
		CanEdit:           r.CanEdit(now),
		RemainingEditTime: r.RemainingEditMinutes(now),
	}
}
