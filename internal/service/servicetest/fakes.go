// Package servicetest provides in-memory collaborators for exercising the
// salary service without PostgreSQL, MinIO or NATS.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/repository"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// Clock is a settable clock
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock reading now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Store is an in-memory salary store with the same version semantics as
// the PostgreSQL repository.
type Store struct {
	mu      sync.Mutex
	records map[string]*salary.Record
	seq     int
	// FailOn makes "create" or "append" fail
	FailOn string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[string]*salary.Record)}
}

func clone(r *salary.Record) *salary.Record {
	c := *r
	c.Payments = append([]salary.Payment(nil), r.Payments...)
	if c.Payments == nil {
		c.Payments = make([]salary.Payment, 0)
	}
	if r.EditLockExpiresAt != nil {
		t := *r.EditLockExpiresAt
		c.EditLockExpiresAt = &t
	}
	return &c
}

func (m *Store) Create(_ context.Context, rec *salary.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn == "create" {
		return errors.New(errors.ErrCodeInternal, "create failed")
	}
	for _, r := range m.records {
		if r.IsActive && r.MaintainerID == rec.MaintainerID && r.Month == rec.Month && r.Year == rec.Year {
			return errors.Conflict("duplicate period")
		}
	}
	for i := range rec.Payments {
		m.seq++
		rec.Payments[i].ID = fmt.Sprintf("p-%d", m.seq)
	}
	rec.IsActive = true
	rec.Version = 1
	m.records[rec.ID] = clone(rec)
	return nil
}

func (m *Store) GetByID(_ context.Context, id, pgID string) (*salary.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || !r.IsActive || r.PGID != pgID {
		return nil, errors.NotFound("salary", id)
	}
	return clone(r), nil
}

func (m *Store) GetActiveByPeriod(_ context.Context, pgID, maintainerID string, month salary.Month, year int) (*salary.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.IsActive && r.PGID == pgID && r.MaintainerID == maintainerID && r.Month == month && r.Year == year {
			return clone(r), nil
		}
	}
	return nil, errors.NotFound("salary", maintainerID)
}

func (m *Store) List(_ context.Context, f repository.SalaryFilter, limit, offset int) ([]*salary.Record, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*salary.Record
	for _, r := range m.records {
		if !r.IsActive || r.PGID != f.PGID {
			continue
		}
		if f.BranchID != nil && r.BranchID != *f.BranchID {
			continue
		}
		if f.MaintainerID != nil && r.MaintainerID != *f.MaintainerID {
			continue
		}
		if f.Month != nil && r.Month != *f.Month {
			continue
		}
		if f.Year != nil && r.Year != *f.Year {
			continue
		}
		if f.Status != nil {
			period := salary.PeriodIndex(r.Month, r.Year)
			switch *f.Status {
			case salary.DisplayOverdue:
				if r.Status != salary.StatusPending || period >= f.CurrentPeriod {
					continue
				}
			case salary.DisplayPending:
				if r.Status != salary.StatusPending || period < f.CurrentPeriod {
					continue
				}
			default:
				if string(r.Status) != string(*f.Status) {
					continue
				}
			}
		}
		out = append(out, clone(r))
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := salary.PeriodIndex(out[i].Month, out[i].Year), salary.PeriodIndex(out[j].Month, out[j].Year)
		if pi != pj {
			return pi > pj
		}
		return out[i].ID < out[j].ID
	})

	total := int64(len(out))
	if limit > 0 {
		if offset > len(out) {
			offset = len(out)
		}
		end := offset + limit
		if end > len(out) {
			end = len(out)
		}
		out = out[offset:end]
	}
	return out, total, nil
}

func (m *Store) casLocked(rec *salary.Record) error {
	cur, ok := m.records[rec.ID]
	if !ok || !cur.IsActive || cur.Version != rec.Version {
		return errors.Conflict("salary was modified by another request, reload and retry")
	}
	return nil
}

func (m *Store) Update(_ context.Context, rec *salary.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.casLocked(rec); err != nil {
		return err
	}
	if cur := m.records[rec.ID]; cur.EditLockExpiresAt != nil {
		rec.EditLockExpiresAt = cur.EditLockExpiresAt
	}
	rec.Version++
	m.records[rec.ID] = clone(rec)
	return nil
}

func (m *Store) AppendPayment(_ context.Context, rec *salary.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn == "append" {
		return errors.New(errors.ErrCodeInternal, "append failed")
	}
	if err := m.casLocked(rec); err != nil {
		return err
	}
	m.seq++
	rec.Payments[len(rec.Payments)-1].ID = fmt.Sprintf("p-%d", m.seq)
	rec.Version++
	m.records[rec.ID] = clone(rec)
	return nil
}

func (m *Store) SoftDelete(_ context.Context, rec *salary.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.casLocked(rec); err != nil {
		return err
	}
	rec.IsActive = false
	rec.Version++
	m.records[rec.ID] = clone(rec)
	return nil
}

// Directory is a fixed maintainer directory keyed by id
type Directory map[string]*repository.Maintainer

func (d Directory) GetByID(_ context.Context, id, pgID string) (*repository.Maintainer, error) {
	m, ok := d[id]
	if !ok || m.PGID != pgID {
		return nil, errors.NotFound("maintainer", id)
	}
	return m, nil
}

// Audit records audit entries
type Audit struct {
	mu      sync.Mutex
	entries []*repository.AuditEntry
}

func (a *Audit) Append(_ context.Context, e *repository.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *Audit) ListBySalary(_ context.Context, salaryID, pgID string) ([]*repository.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*repository.AuditEntry, 0)
	for _, e := range a.entries {
		if e.SalaryID == salaryID && e.PGID == pgID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Actions lists the recorded actions in order
func (a *Audit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

// Receipts is an in-memory receipt store
type Receipts struct {
	mu      sync.Mutex
	Stored  map[string]bool
	Removed []string
	PutErr  error
}

// NewReceipts creates an empty receipt store
func NewReceipts() *Receipts {
	return &Receipts{Stored: make(map[string]bool)}
}

func (f *Receipts) Put(_ context.Context, salaryID string, u *client.ReceiptUpload) (*salary.ReceiptFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	path := fmt.Sprintf("receipts/%s/%d-%s", salaryID, len(f.Stored), u.OriginalName)
	f.Stored[path] = true
	return &salary.ReceiptFile{
		FileName:     u.OriginalName,
		OriginalName: u.OriginalName,
		FilePath:     path,
		FileSize:     u.Size,
		MimeType:     u.ContentType,
	}, nil
}

func (f *Receipts) Remove(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Stored, path)
	f.Removed = append(f.Removed, path)
	return nil
}

// Events records published event types
type Events struct {
	mu     sync.Mutex
	events []string
}

func (f *Events) PublishSalaryEvent(_ context.Context, eventType string, _ *salary.Record, _ string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
}

// List returns the published event types in order
func (f *Events) List() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}
