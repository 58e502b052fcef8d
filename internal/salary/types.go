// Package salary holds the salary record model and its pure lifecycle
// rules: totals computation, the payment ledger, the calendar-derived
// display status and the post-payment edit window. Nothing here performs
// I/O; time always comes in as an argument or through a Clock.
package salary

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Month is a calendar month, January = 1.
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// ParseMonth accepts an English month name in any letter case.
func ParseMonth(s string) (Month, error) {
	name := strings.TrimSpace(s)
	for m := January; m <= December; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// Valid reports whether m is in 1..12.
func (m Month) Valid() bool {
	return m >= January && m <= December
}

func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return time.Month(m).String()
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("month must be a string: %w", err)
	}
	parsed, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PersistedStatus is the status stored with a record. Overdue is never
// persisted; see DisplayStatus.
type PersistedStatus string

const (
	StatusPending       PersistedStatus = "pending"
	StatusPartiallyPaid PersistedStatus = "partially_paid"
	StatusPaid          PersistedStatus = "paid"
	StatusCancelled     PersistedStatus = "cancelled"
)

// Valid reports whether s is one of the persisted statuses.
func (s PersistedStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartiallyPaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// DisplayStatus is the status shown to callers, computed at read time.
type DisplayStatus string

const (
	DisplayPending       DisplayStatus = "pending"
	DisplayPartiallyPaid DisplayStatus = "partially_paid"
	DisplayPaid          DisplayStatus = "paid"
	DisplayOverdue       DisplayStatus = "overdue"
	DisplayCancelled     DisplayStatus = "cancelled"
)

// ParseDisplayStatus validates a status filter.
func ParseDisplayStatus(s string) (DisplayStatus, error) {
	switch ds := DisplayStatus(strings.ToLower(strings.TrimSpace(s))); ds {
	case DisplayPending, DisplayPartiallyPaid, DisplayPaid, DisplayOverdue, DisplayCancelled:
		return ds, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodCheque       PaymentMethod = "cheque"
	MethodOther        PaymentMethod = "other"
)

// PaymentMethods lists the accepted methods in display order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodBankTransfer, MethodUPI, MethodCheque, MethodOther}

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// Overtime is hours worked beyond schedule. Amount may be supplied; when
// it is zero it is derived as Hours * Rate.
type Overtime struct {
	Hours  decimal.Decimal `json:"hours"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Deductions only carries a catch-all amount.
type Deductions struct {
	Other decimal.Decimal `json:"other"`
}

// ReceiptFile describes a stored receipt image.
type ReceiptFile struct {
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	FilePath     string `json:"filePath"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType"`
}

// Payment is one ledger entry.
type Payment struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	TransactionID *string         `json:"transactionId,omitempty"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Notes         *string         `json:"notes,omitempty"`
	ReceiptImage  *ReceiptFile    `json:"receiptImage,omitempty"`
	PaidBy        string          `json:"paidBy"`
	PaidAt        time.Time       `json:"paidAt"`
}

// Record is the salary of one maintainer for one month.
type Record struct {
	ID           string `json:"id"`
	PGID         string `json:"pgId"`
	BranchID     string `json:"branchId"`
	MaintainerID string `json:"maintainerId"`
	Month        Month  `json:"month"`
	Year         int    `json:"year"`

	BaseSalary decimal.Decimal `json:"baseSalary"`
	Bonus      decimal.Decimal `json:"bonus"`
	Overtime   Overtime        `json:"overtime"`
	Deductions Deductions      `json:"deductions"`

	GrossSalary     decimal.Decimal `json:"grossSalary"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetSalary       decimal.Decimal `json:"netSalary"`

	Payments      []Payment       `json:"payments"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	PendingAmount decimal.Decimal `json:"pendingAmount"`

	Status            PersistedStatus `json:"status"`
	EditLockExpiresAt *time.Time      `json:"editLockExpiresAt,omitempty"`

	Notes     *string   `json:"notes,omitempty"`
	IsActive  bool      `json:"isActive"`
	Version   int       `json:"version"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	UpdatedBy *string   `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PeriodIndex orders periods: later periods have larger indexes.
func PeriodIndex(month Month, year int) int {
	return year*12 + int(month) - 1
}

// Period renders "March 2024".
func (r *Record) Period() string {
	return fmt.Sprintf("%s %d", r.Month, r.Year)
}
