package salary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bucket totals the records sharing a display status.
type Bucket struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
}

func (b *Bucket) add(r *Record) {
	b.Count++
	b.TotalAmount = b.TotalAmount.Add(r.NetSalary)
	b.PaidAmount = b.PaidAmount.Add(r.PaidAmount)
}

// Stats summarises a set of records by display status.
type Stats struct {
	TotalCount     int             `json:"totalCount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	TotalPending   decimal.Decimal `json:"totalPending"`
	Pending        Bucket          `json:"pending"`
	PartiallyPaid  Bucket          `json:"partiallyPaid"`
	Paid           Bucket          `json:"paid"`
	Overdue        Bucket          `json:"overdue"`
	CancelledCount int             `json:"cancelledCount"`
}

// Aggregate buckets records by their display status at now, so a pending
// record from a past month counts as overdue. Cancelled records are only
// counted in CancelledCount.
func Aggregate(records []*Record, now time.Time) Stats {
	var s Stats
	for _, r := range records {
		var bucket *Bucket
		switch r.DisplayStatus(now) {
		case DisplayCancelled:
			s.CancelledCount++
			continue
		case DisplayPaid:
			bucket = &s.Paid
		case DisplayPartiallyPaid:
			bucket = &s.PartiallyPaid
		case DisplayOverdue:
			bucket = &s.Overdue
		default:
			bucket = &s.Pending
		}
		bucket.add(r)

		s.TotalCount++
		s.TotalAmount = s.TotalAmount.Add(r.NetSalary)
		s.TotalPaid = s.TotalPaid.Add(r.PaidAmount)
		s.TotalPending = s.TotalPending.Add(r.PendingAmount)
	}
	return s
}

// PeriodTotals are the money totals of a group of records.
type PeriodTotals struct {
	Count        int             `json:"count"`
	NetTotal     decimal.Decimal `json:"netTotal"`
	PaidTotal    decimal.Decimal `json:"paidTotal"`
	PendingTotal decimal.Decimal `json:"pendingTotal"`
}

func (t *PeriodTotals) add(r *Record) {
	t.Count++
	t.NetTotal = t.NetTotal.Add(r.NetSalary)
	t.PaidTotal = t.PaidTotal.Add(r.PaidAmount)
	t.PendingTotal = t.PendingTotal.Add(r.PendingAmount)
}

type MonthlyTotals struct {
	Month Month `json:"month"`
	PeriodTotals
}

type BranchTotals struct {
	BranchID string `json:"branchId"`
	PeriodTotals
}

type MethodTotal struct {
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Count         int             `json:"count"`
	Amount        decimal.Decimal `json:"amount"`
}

// Analytics is the yearly breakdown shown on the dashboard.
type Analytics struct {
	Year           int             `json:"year"`
	Monthly        []MonthlyTotals `json:"monthly"`
	Branches       []BranchTotals  `json:"branches"`
	PaymentMethods []MethodTotal   `json:"paymentMethods"`
}

// Analyze breaks the records of year down by month, branch and payment
// method. Records from other years and cancelled records are skipped.
func Analyze(records []*Record, year int) Analytics {
	a := Analytics{Year: year, Monthly: make([]MonthlyTotals, 12)}
	for i := range a.Monthly {
		a.Monthly[i].Month = Month(i + 1)
	}

	branches := make(map[string]*BranchTotals)
	methods := make(map[PaymentMethod]*MethodTotal)

	for _, r := range records {
		if r.Year != year || r.Status == StatusCancelled || !r.Month.Valid() {
			continue
		}
		a.Monthly[r.Month-1].add(r)

		bt, ok := branches[r.BranchID]
		if !ok {
			bt = &BranchTotals{BranchID: r.BranchID}
			branches[r.BranchID] = bt
		}
		bt.add(r)

		for _, p := range r.Payments {
			mt, ok := methods[p.PaymentMethod]
			if !ok {
				mt = &MethodTotal{PaymentMethod: p.PaymentMethod}
				methods[p.PaymentMethod] = mt
			}
			mt.Count++
			mt.Amount = mt.Amount.Add(p.Amount)
		}
	}

	a.Branches = make([]BranchTotals, 0, len(branches))
	for _, bt := range branches {
		a.Branches = append(a.Branches, *bt)
	}
	sort.Slice(a.Branches, func(i, j int) bool { return a.Branches[i].BranchID < a.Branches[j].BranchID })

	a.PaymentMethods = make([]MethodTotal, 0, len(methods))
	for _, pm := range PaymentMethods {
		if mt, ok := methods[pm]; ok {
			a.PaymentMethods = append(a.PaymentMethods, *mt)
		}
	}

	return a
}

// MaintainerSummary is the salary history of one maintainer.
type MaintainerSummary struct {
	MaintainerID  string                `json:"maintainerId"`
	TotalRecords  int                   `json:"totalRecords"`
	TotalNet      decimal.Decimal       `json:"totalNet"`
	TotalPaid     decimal.Decimal       `json:"totalPaid"`
	TotalPending  decimal.Decimal       `json:"totalPending"`
	StatusCounts  map[DisplayStatus]int `json:"statusCounts"`
	LastPaymentAt *time.Time            `json:"lastPaymentAt,omitempty"`
	Records       []View                `json:"records"`
}

// SummarizeMaintainer totals a maintainer's records and lists them newest
// period first. Cancelled records are listed and counted but excluded from
// the money totals.
func SummarizeMaintainer(maintainerID string, records []*Record, now time.Time) MaintainerSummary {
	s := MaintainerSummary{
		MaintainerID: maintainerID,
		StatusCounts: make(map[DisplayStatus]int),
		Records:      make([]View, 0, len(records)),
	}

	sorted := make([]*Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return PeriodIndex(sorted[i].Month, sorted[i].Year) > PeriodIndex(sorted[j].Month, sorted[j].Year)
	})

	for _, r := range sorted {
		v := NewView(r, now)
		s.Records = append(s.Records, v)
		s.TotalRecords++
		s.StatusCounts[v.CalculatedStatus]++

		for _, p := range r.Payments {
			if s.LastPaymentAt == nil || p.PaidAt.After(*s.LastPaymentAt) {
				paidAt := p.PaidAt
				s.LastPaymentAt = &paidAt
			}
		}

		if r.Status == StatusCancelled {
			continue
		}
		s.TotalNet = s.TotalNet.Add(r.NetSalary)
		s.TotalPaid = s.TotalPaid.Add(r.PaidAmount)
		s.TotalPending = s.TotalPending.Add(r.PendingAmount)
	}

	return s
}
