package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// OvertimeInput is the overtime group of a request
type OvertimeInput struct {
	Hours  salary.RawNumber `json:"hours"`
	Rate   salary.RawNumber `json:"rate"`
	Amount salary.RawNumber `json:"amount"`
}

// DeductionsInput is the deductions group of a request
type DeductionsInput struct {
	Other salary.RawNumber `json:"other"`
}

// ComponentsInput carries the salary components. Absent values are zero on
// create and unchanged on update.
type ComponentsInput struct {
	BaseSalary salary.RawNumber `json:"baseSalary"`
	Bonus      salary.RawNumber `json:"bonus"`
	Overtime   *OvertimeInput   `json:"overtime,omitempty"`
	Deductions *DeductionsInput `json:"deductions,omitempty"`
}

// PaymentInput is one payment as submitted by a client
type PaymentInput struct {
	Amount        salary.RawNumber `json:"amount"`
	PaymentMethod string           `json:"paymentMethod"`
	TransactionID *string          `json:"transactionId,omitempty"`
	PaymentDate   *string          `json:"paymentDate,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

// CreateSalaryRequest represents a create salary request
type CreateSalaryRequest struct {
	PGID         string           `json:"-"`
	CreatedBy    string           `json:"-"`
	MaintainerID string           `json:"maintainerId"`
	BranchID     string           `json:"branchId,omitempty"`
	Month        string           `json:"month"`
	Year         salary.RawNumber `json:"year"`
	ComponentsInput
	Notes   *string               `json:"notes,omitempty"`
	Payment *PaymentInput         `json:"payment,omitempty"`
	Receipt *client.ReceiptUpload `json:"-"`
}

// UpdateSalaryRequest represents a partial salary update
type UpdateSalaryRequest struct {
	ID        string `json:"-"`
	PGID      string `json:"-"`
	UpdatedBy string `json:"-"`
	ComponentsInput
	Notes  *string `json:"notes,omitempty"`
	Status *string `json:"status,omitempty"`
}

// RecordPaymentRequest represents a record payment request
type RecordPaymentRequest struct {
	SalaryID string `json:"-"`
	PGID     string `json:"-"`
	PaidBy   string `json:"-"`
	PaymentInput
	Receipt *client.ReceiptUpload `json:"-"`
}

// ListSalariesRequest carries the list, stats and export filters as
// received from the query string.
type ListSalariesRequest struct {
	PGID         string
	BranchID     string
	MaintainerID string
	Month        string
	Year         string
	Status       string
	Page         int
	PageSize     int
}

// ListSalariesResult is one page of salaries
type ListSalariesResult struct {
	Salaries []salary.View `json:"salaries"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// parseMonth accepts a month name or its number
func parseMonth(s string) (salary.Month, bool) {
	if m, err := salary.ParseMonth(s); err == nil {
		return m, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !salary.Month(n).Valid() {
		return 0, false
	}
	return salary.Month(n), true
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// decimalField parses a non-negative amount, recording failures in verr
func (s *SalaryService) decimalField(verr *errors.ValidationErrors, field string, raw salary.RawNumber) decimal.Decimal {
	d, err := s.numeric.Decimal(raw)
	if err != nil {
		verr.Add(field, err.Error())
		return decimal.Zero
	}
	if d.IsNegative() {
		verr.Add(field, "cannot be negative")
		return decimal.Zero
	}
	return d
}

// applyComponents writes the supplied components onto rec. Supplying
// overtime hours or rate without an amount clears the stored amount so it
// is derived again.
func (s *SalaryService) applyComponents(verr *errors.ValidationErrors, rec *salary.Record, in ComponentsInput) {
	if in.BaseSalary.IsSet() {
		rec.BaseSalary = s.decimalField(verr, "baseSalary", in.BaseSalary)
	}
	if in.Bonus.IsSet() {
		rec.Bonus = s.decimalField(verr, "bonus", in.Bonus)
	}
	if ot := in.Overtime; ot != nil {
		if ot.Hours.IsSet() {
			rec.Overtime.Hours = s.decimalField(verr, "overtime.hours", ot.Hours)
		}
		if ot.Rate.IsSet() {
			rec.Overtime.Rate = s.decimalField(verr, "overtime.rate", ot.Rate)
		}
		switch {
		case ot.Amount.IsSet():
			rec.Overtime.Amount = s.decimalField(verr, "overtime.amount", ot.Amount)
		case ot.Hours.IsSet() || ot.Rate.IsSet():
			rec.Overtime.Amount = decimal.Zero
		}
	}
	if d := in.Deductions; d != nil && d.Other.IsSet() {
		rec.Deductions.Other = s.decimalField(verr, "deductions.other", d.Other)
	}
}

// buildPayment validates a payment input and returns the ledger entry
func (s *SalaryService) buildPayment(verr *errors.ValidationErrors, in PaymentInput, paidBy string, now time.Time) salary.Payment {
	p := salary.Payment{
		PaymentMethod: salary.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod))),
		TransactionID: trimmed(in.TransactionID),
		Notes:         trimmed(in.Notes),
		PaidBy:        paidBy,
		PaidAt:        now,
		PaymentDate:   now,
	}

	if !in.Amount.IsSet() {
		verr.Add("amount", "is required")
	} else if amount, err := s.numeric.Decimal(in.Amount); err != nil {
		verr.Add("amount", err.Error())
	} else if !amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	} else {
		p.Amount = amount
	}

	if p.PaymentMethod == "" {
		p.PaymentMethod = salary.MethodCash
	}
	if !p.PaymentMethod.Valid() {
		verr.Add("paymentMethod", "must be one of cash, bank_transfer, upi, cheque, other")
	}

	if in.PaymentDate != nil && strings.TrimSpace(*in.PaymentDate) != "" {
		date, err := parsePaymentDate(*in.PaymentDate, s.location)
		if err != nil {
			verr.Add("paymentDate", "must be YYYY-MM-DD or RFC 3339")
		} else {
			p.PaymentDate = date
		}
	}

	if paidBy == "" {
		verr.Add("paidBy", "is required")
	}

	return p
}

func parsePaymentDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func validateReceipt(verr *errors.ValidationErrors, upload *client.ReceiptUpload) {
	if upload == nil {
		return
	}
	if !client.AllowedReceiptTypes[upload.ContentType] {
		verr.Add("receiptImage", "must be a JPEG, PNG, WebP or PDF file")
	}
	if upload.Size <= 0 {
		verr.Add("receiptImage", "is empty")
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
