package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/logger"
	"github.com/pesio-ai/be-pg-salaries/internal/repository"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// SalaryStore persists salary records and their ledgers
type SalaryStore interface {
	Create(ctx context.Context, rec *salary.Record) error
	GetByID(ctx context.Context, id, pgID string) (*salary.Record, error)
	GetActiveByPeriod(ctx context.Context, pgID, maintainerID string, month salary.Month, year int) (*salary.Record, error)
	List(ctx context.Context, filter repository.SalaryFilter, limit, offset int) ([]*salary.Record, int64, error)
	Update(ctx context.Context, rec *salary.Record) error
	AppendPayment(ctx context.Context, rec *salary.Record) error
	SoftDelete(ctx context.Context, rec *salary.Record) error
}

// MaintainerDirectory resolves maintainers of a PG
type MaintainerDirectory interface {
	GetByID(ctx context.Context, id, pgID string) (*repository.Maintainer, error)
}

// AuditLog appends and reads salary audit entries
type AuditLog interface {
	Append(ctx context.Context, entry *repository.AuditEntry) error
	ListBySalary(ctx context.Context, salaryID, pgID string) ([]*repository.AuditEntry, error)
}

// Locker serializes work on one key
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ReceiptStore keeps receipt files
type ReceiptStore interface {
	Put(ctx context.Context, salaryID string, upload *client.ReceiptUpload) (*salary.ReceiptFile, error)
	Remove(ctx context.Context, filePath string) error
}

// EventPublisher publishes salary lifecycle events. Implementations must
// not fail the caller.
type EventPublisher interface {
	PublishSalaryEvent(ctx context.Context, eventType string, rec *salary.Record, actorID string, payload map[string]any)
}

// Options tune the salary rules
type Options struct {
	Clock         salary.Clock
	EditWindow    time.Duration
	NumericPolicy salary.NumericPolicy
	MinYear       int
	MaxYear       int
}

// SalaryService handles salary business logic
type SalaryService struct {
	store       SalaryStore
	maintainers MaintainerDirectory
	audit       AuditLog
	locker      Locker
	receipts    ReceiptStore
	events      EventPublisher
	clock       salary.Clock
	location    *time.Location
	editWindow  time.Duration
	numeric     salary.NumericPolicy
	minYear     int
	maxYear     int
	log         *logger.Logger
}

// NewSalaryService creates a new salary service. receipts may be nil when
// no object storage is configured.
func NewSalaryService(
	store SalaryStore,
	maintainers MaintainerDirectory,
	audit AuditLog,
	locker Locker,
	receipts ReceiptStore,
	events EventPublisher,
	opts Options,
	log *logger.Logger,
) *SalaryService {
	if opts.Clock == nil {
		opts.Clock = salary.SystemClock{Location: time.UTC}
	}
	if opts.EditWindow <= 0 {
		opts.EditWindow = 4 * time.Hour
	}
	if opts.NumericPolicy == "" {
		opts.NumericPolicy = salary.NumericReject
	}
	if opts.MinYear == 0 && opts.MaxYear == 0 {
		opts.MinYear, opts.MaxYear = 2020, 2030
	}

	loc := time.UTC
	if sc, ok := opts.Clock.(salary.SystemClock); ok && sc.Location != nil {
		loc = sc.Location
	}

	return &SalaryService{
		store:       store,
		maintainers: maintainers,
		audit:       audit,
		locker:      locker,
		receipts:    receipts,
		events:      events,
		clock:       opts.Clock,
		location:    loc,
		editWindow:  opts.EditWindow,
		numeric:     opts.NumericPolicy,
		minYear:     opts.MinYear,
		maxYear:     opts.MaxYear,
		log:         log.Component("salary_service"),
	}
}

// CreateSalary creates the salary of a maintainer for a period. When an
// active salary already exists for the period it is updated instead, as
// long as it is still editable.
func (s *SalaryService) CreateSalary(ctx context.Context, req *CreateSalaryRequest) (*salary.View, error) {
	now := s.clock.Now()
	verr := &errors.ValidationErrors{}

	if req.MaintainerID == "" {
		verr.Add("maintainerId", "is required")
	} else if !validUUID(req.MaintainerID) {
		verr.Add("maintainerId", "must be a valid id")
	}
	if req.BranchID != "" && !validUUID(req.BranchID) {
		verr.Add("branchId", "must be a valid id")
	}

	month, ok := parseMonth(req.Month)
	if !ok {
		verr.Add("month", "must be a month name such as March")
	}

	year, err := s.numeric.Int(req.Year)
	switch {
	case !req.Year.IsSet():
		verr.Add("year", "is required")
	case err != nil:
		verr.Add("year", err.Error())
	case year < s.minYear || year > s.maxYear:
		verr.Add("year", fmt.Sprintf("must be between %d and %d", s.minYear, s.maxYear))
	}

	rec := &salary.Record{
		ID:        uuid.New().String(),
		PGID:      req.PGID,
		Month:     month,
		Year:      year,
		Notes:     trimmed(req.Notes),
		Status:    salary.StatusPending,
		Payments:  make([]salary.Payment, 0),
		CreatedBy: optional(req.CreatedBy),
		UpdatedBy: optional(req.CreatedBy),
	}
	if !req.BaseSalary.IsSet() {
		verr.Add("baseSalary", "is required")
	}
	s.applyComponents(verr, rec, req.ComponentsInput)
	rec.ComputeTotals()
	checkNet(verr, rec)

	var payment salary.Payment
	if req.Payment != nil {
		payment = s.buildPayment(verr, *req.Payment, req.CreatedBy, now)
		if !verr.Has("amount") && payment.Amount.GreaterThan(decimal.Max(rec.NetSalary, decimal.Zero)) {
			verr.Add("amount", "cannot exceed the net salary")
		}
		validateReceipt(verr, req.Receipt)
	} else if req.Receipt != nil {
		verr.Add("receiptImage", "requires a payment")
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	maintainer, err := s.maintainers.GetByID(ctx, req.MaintainerID, req.PGID)
	if err != nil {
		return nil, err
	}
	if !maintainer.IsActive {
		return nil, errors.InvalidInput("maintainerId", "maintainer is not active")
	}
	if req.BranchID != "" && req.BranchID != maintainer.BranchID {
		return nil, errors.InvalidInput("branchId", "maintainer does not belong to this branch")
	}
	rec.MaintainerID = maintainer.ID
	rec.BranchID = maintainer.BranchID

	existing, err := s.store.GetActiveByPeriod(ctx, req.PGID, maintainer.ID, month, year)
	switch {
	case err == nil:
		return s.mergeIntoExisting(ctx, existing.ID, req, paymentOrNil(req, payment))
	case !errors.Is(err, errors.ErrCodeNotFound):
		return nil, err
	}

	var receipt *salary.ReceiptFile
	if req.Payment != nil {
		if receipt, err = s.storeReceipt(ctx, rec.ID, req.Receipt); err != nil {
			return nil, err
		}
		payment.ReceiptImage = receipt
		rec.ApplyPayment(payment, now, s.editWindow)
	} else {
		rec.RefreshPaymentState(now, s.editWindow)
	}

	if err := s.store.Create(ctx, rec); err != nil {
		s.discardReceipt(ctx, receipt)
		return nil, err
	}

	s.log.Info().
		Str("salary_id", rec.ID).
		Str("maintainer_id", rec.MaintainerID).
		Str("period", rec.Period()).
		Str("net_salary", rec.NetSalary.String()).
		Msg("Salary created")

	s.recordAudit(ctx, rec, repository.AuditActionCreated, req.CreatedBy, nil, map[string]any{
		"netSalary": rec.NetSalary.String(),
	})
	s.publish(ctx, client.EventSalaryCreated, rec, req.CreatedBy, nil)
	if rec.Status == salary.StatusPaid {
		s.publish(ctx, client.EventSalaryPaid, rec, req.CreatedBy, nil)
	}

	return s.view(rec), nil
}

// mergeIntoExisting applies a create request to the active salary of the
// same period. The components, totals and optional payment are validated
// against the reloaded record and persisted together, so a rejected
// payment leaves the salary untouched.
func (s *SalaryService) mergeIntoExisting(ctx context.Context, salaryID string, req *CreateSalaryRequest, payment *salary.Payment) (*salary.View, error) {
	unlock, err := s.lock(ctx, salaryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.store.GetByID(ctx, salaryID, req.PGID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !rec.CanEdit(now) {
		return nil, errors.Conflict(fmt.Sprintf("salary for %s already exists and can no longer be edited", rec.Period()))
	}

	before := rec.Status
	verr := &errors.ValidationErrors{}
	s.applyComponents(verr, rec, req.ComponentsInput)
	if req.Notes != nil {
		rec.Notes = trimmed(req.Notes)
	}
	rec.ComputeTotals()
	checkNet(verr, rec)
	if err := verr.Err(); err != nil {
		return nil, err
	}
	rec.RefreshPaymentState(now, s.editWindow)
	rec.UpdatedBy = optional(req.CreatedBy)

	metadata := map[string]any{"netSalary": rec.NetSalary.String()}
	if payment == nil {
		if err := s.store.Update(ctx, rec); err != nil {
			return nil, err
		}
		s.log.Info().
			Str("salary_id", rec.ID).
			Str("period", rec.Period()).
			Str("net_salary", rec.NetSalary.String()).
			Msg("Salary merged into existing period")

		s.recordAudit(ctx, rec, repository.AuditActionUpdated, req.CreatedBy, &before, metadata)
		s.publish(ctx, client.EventSalaryUpdated, rec, req.CreatedBy, nil)
		if rec.Status == salary.StatusPaid && before != salary.StatusPaid {
			s.publish(ctx, client.EventSalaryPaid, rec, req.CreatedBy, nil)
		}
		return s.view(rec), nil
	}

	if err := checkPayable(rec, payment.Amount); err != nil {
		return nil, err
	}

	receipt, err := s.storeReceipt(ctx, rec.ID, req.Receipt)
	if err != nil {
		return nil, err
	}
	payment.ReceiptImage = receipt
	rec.ApplyPayment(*payment, now, s.editWindow)

	if err := s.store.AppendPayment(ctx, rec); err != nil {
		s.discardReceipt(ctx, receipt)
		return nil, err
	}

	s.log.Info().
		Str("salary_id", rec.ID).
		Str("period", rec.Period()).
		Str("net_salary", rec.NetSalary.String()).
		Str("amount", payment.Amount.String()).
		Str("status", string(rec.Status)).
		Msg("Salary merged into existing period with payment")

	payload := map[string]any{
		"amount":        payment.Amount.String(),
		"paymentMethod": string(payment.PaymentMethod),
	}
	s.recordAudit(ctx, rec, repository.AuditActionUpdated, req.CreatedBy, &before, metadata)
	s.recordAudit(ctx, rec, repository.AuditActionPaymentRecorded, req.CreatedBy, &before, payload)
	s.publish(ctx, client.EventSalaryUpdated, rec, req.CreatedBy, nil)
	s.publish(ctx, client.EventPaymentRecorded, rec, req.CreatedBy, payload)
	if rec.Status == salary.StatusPaid && before != salary.StatusPaid {
		s.publish(ctx, client.EventSalaryPaid, rec, req.CreatedBy, nil)
	}

	return s.view(rec), nil
}

func paymentOrNil(req *CreateSalaryRequest, p salary.Payment) *salary.Payment {
	if req.Payment == nil {
		return nil
	}
	return &p
}

// GetSalary retrieves a salary
func (s *SalaryService) GetSalary(ctx context.Context, id, pgID string) (*salary.View, error) {
	if !validUUID(id) {
		return nil, errors.InvalidInput("id", "must be a valid id")
	}
	rec, err := s.store.GetByID(ctx, id, pgID)
	if err != nil {
		return nil, err
	}
	return s.view(rec), nil
}

// SalaryHistory returns the audit trail of a salary, oldest first. Deleted
// salaries keep their history.
func (s *SalaryService) SalaryHistory(ctx context.Context, id, pgID string) ([]*repository.AuditEntry, error) {
	if !validUUID(id) {
		return nil, errors.InvalidInput("id", "must be a valid id")
	}
	if s.audit == nil {
		return []*repository.AuditEntry{}, nil
	}
	entries, err := s.audit.ListBySalary(ctx, id, pgID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NotFound("salary", id)
	}
	return entries, nil
}

// ListSalaries lists salaries with filtering and pagination
func (s *SalaryService) ListSalaries(ctx context.Context, req *ListSalariesRequest) (*ListSalariesResult, error) {
	filter, err := s.buildFilter(req)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	records, total, err := s.store.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]salary.View, 0, len(records))
	for _, rec := range records {
		views = append(views, salary.NewView(rec, now))
	}

	return &ListSalariesResult{Salaries: views, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateSalary applies a partial update to an editable salary
func (s *SalaryService) UpdateSalary(ctx context.Context, req *UpdateSalaryRequest) (*salary.View, error) {
	if !validUUID(req.ID) {
		return nil, errors.InvalidInput("id", "must be a valid id")
	}

	unlock, err := s.lock(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.store.GetByID(ctx, req.ID, req.PGID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !rec.CanEdit(now) {
		return nil, s.lockedError(rec)
	}

	before := rec.Status
	verr := &errors.ValidationErrors{}
	s.applyComponents(verr, rec, req.ComponentsInput)
	if req.Notes != nil {
		rec.Notes = trimmed(req.Notes)
	}

	cancel := false
	if req.Status != nil {
		switch salary.PersistedStatus(strings.ToLower(strings.TrimSpace(*req.Status))) {
		case salary.StatusCancelled:
			cancel = true
		case rec.Status:
		default:
			verr.Add("status", "only cancelled can be set directly")
		}
	}

	rec.ComputeTotals()
	checkNet(verr, rec)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	if cancel {
		if rec.Status == salary.StatusPaid {
			return nil, errors.PreconditionFailed("a fully paid salary cannot be cancelled")
		}
		rec.Status = salary.StatusCancelled
	}
	rec.RefreshPaymentState(now, s.editWindow)
	rec.UpdatedBy = optional(req.UpdatedBy)

	if err := s.store.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("salary_id", rec.ID).
		Str("status_before", string(before)).
		Str("status_after", string(rec.Status)).
		Msg("Salary updated")

	metadata := map[string]any{"netSalary": rec.NetSalary.String()}
	if rec.Status == salary.StatusCancelled && before != salary.StatusCancelled {
		s.recordAudit(ctx, rec, repository.AuditActionCancelled, req.UpdatedBy, &before, metadata)
		s.publish(ctx, client.EventSalaryCancelled, rec, req.UpdatedBy, nil)
	} else {
		s.recordAudit(ctx, rec, repository.AuditActionUpdated, req.UpdatedBy, &before, metadata)
		s.publish(ctx, client.EventSalaryUpdated, rec, req.UpdatedBy, nil)
	}
	if rec.Status == salary.StatusPaid && before != salary.StatusPaid {
		s.publish(ctx, client.EventSalaryPaid, rec, req.UpdatedBy, nil)
	}

	return s.view(rec), nil
}

// RecordPayment appends a payment to a salary's ledger
func (s *SalaryService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*salary.View, error) {
	if !validUUID(req.SalaryID) {
		return nil, errors.InvalidInput("id", "must be a valid id")
	}

	now := s.clock.Now()
	verr := &errors.ValidationErrors{}
	payment := s.buildPayment(verr, req.PaymentInput, req.PaidBy, now)
	validateReceipt(verr, req.Receipt)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, req.SalaryID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := s.store.GetByID(ctx, req.SalaryID, req.PGID)
	if err != nil {
		return nil, err
	}

	if err := checkPayable(rec, payment.Amount); err != nil {
		return nil, err
	}

	receipt, err := s.storeReceipt(ctx, rec.ID, req.Receipt)
	if err != nil {
		return nil, err
	}
	payment.ReceiptImage = receipt

	before := rec.Status
	rec.ApplyPayment(payment, now, s.editWindow)
	rec.UpdatedBy = optional(req.PaidBy)

	if err := s.store.AppendPayment(ctx, rec); err != nil {
		s.discardReceipt(ctx, receipt)
		return nil, err
	}

	s.log.Info().
		Str("salary_id", rec.ID).
		Str("amount", payment.Amount.String()).
		Str("payment_method", string(payment.PaymentMethod)).
		Str("status", string(rec.Status)).
		Msg("Salary payment recorded")

	payload := map[string]any{
		"amount":        payment.Amount.String(),
		"paymentMethod": string(payment.PaymentMethod),
	}
	s.recordAudit(ctx, rec, repository.AuditActionPaymentRecorded, req.PaidBy, &before, payload)
	s.publish(ctx, client.EventPaymentRecorded, rec, req.PaidBy, payload)
	if rec.Status == salary.StatusPaid {
		s.publish(ctx, client.EventSalaryPaid, rec, req.PaidBy, nil)
	}

	return s.view(rec), nil
}

// DeleteSalary soft deletes an editable salary and removes its receipts
func (s *SalaryService) DeleteSalary(ctx context.Context, id, pgID, deletedBy string) error {
	if !validUUID(id) {
		return errors.InvalidInput("id", "must be a valid id")
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := s.store.GetByID(ctx, id, pgID)
	if err != nil {
		return err
	}
	if !rec.CanEdit(s.clock.Now()) {
		return s.lockedError(rec)
	}

	rec.UpdatedBy = optional(deletedBy)
	if err := s.store.SoftDelete(ctx, rec); err != nil {
		return err
	}

	for _, p := range rec.Payments {
		if p.ReceiptImage != nil {
			s.discardReceipt(ctx, p.ReceiptImage)
		}
	}

	s.log.Info().Str("salary_id", rec.ID).Msg("Salary deleted")

	status := rec.Status
	s.recordAudit(ctx, rec, repository.AuditActionDeleted, deletedBy, &status, nil)
	s.publish(ctx, client.EventSalaryDeleted, rec, deletedBy, nil)
	return nil
}

// buildFilter validates list filters
func (s *SalaryService) buildFilter(req *ListSalariesRequest) (repository.SalaryFilter, error) {
	verr := &errors.ValidationErrors{}
	now := s.clock.Now()
	filter := repository.SalaryFilter{
		PGID:          req.PGID,
		CurrentPeriod: salary.PeriodIndex(salary.Month(now.Month()), now.Year()),
	}

	if req.BranchID != "" {
		if !validUUID(req.BranchID) {
			verr.Add("branchId", "must be a valid id")
		}
		filter.BranchID = &req.BranchID
	}
	if req.MaintainerID != "" {
		if !validUUID(req.MaintainerID) {
			verr.Add("maintainerId", "must be a valid id")
		}
		filter.MaintainerID = &req.MaintainerID
	}
	if req.Month != "" {
		if m, ok := parseMonth(req.Month); ok {
			filter.Month = &m
		} else {
			verr.Add("month", "must be a month name such as March")
		}
	}
	if req.Year != "" {
		if y, err := salary.NumericReject.Int(salary.RawNumber(req.Year)); err == nil {
			filter.Year = &y
		} else {
			verr.Add("year", "must be a whole number")
		}
	}
	if req.Status != "" && req.Status != "all" {
		if st, err := salary.ParseDisplayStatus(req.Status); err == nil {
			filter.Status = &st
		} else {
			verr.Add("status", "must be one of pending, partially_paid, paid, overdue, cancelled")
		}
	}

	return filter, verr.Err()
}

func (s *SalaryService) view(rec *salary.Record) *salary.View {
	v := salary.NewView(rec, s.clock.Now())
	if rec.Status == salary.StatusPaid && rec.EditLockExpiresAt == nil {
		s.log.Warn().Str("salary_id", rec.ID).Msg("Paid salary has no edit lock timestamp, treating as locked")
	}
	return &v
}

func (s *SalaryService) lockedError(rec *salary.Record) error {
	if rec.EditLockExpiresAt == nil {
		return errors.PreconditionFailed("salary is paid and locked for editing")
	}
	return errors.PreconditionFailed(fmt.Sprintf("salary is paid and the edit window closed at %s",
		rec.EditLockExpiresAt.In(s.location).Format(time.RFC3339)))
}

func (s *SalaryService) lock(ctx context.Context, salaryID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "salary:"+salaryID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConflict, "salary is busy, retry shortly")
	}
	return unlock, nil
}

func (s *SalaryService) storeReceipt(ctx context.Context, salaryID string, upload *client.ReceiptUpload) (*salary.ReceiptFile, error) {
	if upload == nil {
		return nil, nil
	}
	if s.receipts == nil {
		return nil, errors.InvalidInput("receiptImage", "receipt storage is not configured")
	}
	file, err := s.receipts.Put(ctx, salaryID, upload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to store receipt")
	}
	return file, nil
}

// discardReceipt removes a stored receipt, logging failures only
func (s *SalaryService) discardReceipt(ctx context.Context, file *salary.ReceiptFile) {
	if file == nil || s.receipts == nil {
		return
	}
	if err := s.receipts.Remove(context.WithoutCancel(ctx), file.FilePath); err != nil {
		s.log.Warn().Err(err).Str("file_path", file.FilePath).Msg("Failed to remove receipt")
	}
}

// recordAudit appends an audit entry. Failures are logged only.
func (s *SalaryService) recordAudit(ctx context.Context, rec *salary.Record, action, actor string, before *salary.PersistedStatus, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &repository.AuditEntry{
		SalaryID:    rec.ID,
		PGID:        rec.PGID,
		Action:      action,
		PerformedBy: actor,
		Metadata:    metadata,
	}
	if before != nil {
		b := string(*before)
		entry.StatusBefore = &b
	}
	after := string(rec.Status)
	entry.StatusAfter = &after

	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("salary_id", rec.ID).Str("action", action).Msg("Failed to append audit entry")
	}
}

func (s *SalaryService) publish(ctx context.Context, eventType string, rec *salary.Record, actor string, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.PublishSalaryEvent(ctx, eventType, rec, actor, payload)
}

// checkPayable reports whether amount can be paid against rec
func checkPayable(rec *salary.Record, amount decimal.Decimal) error {
	switch rec.Status {
	case salary.StatusPaid:
		return errors.PreconditionFailed("salary is already fully paid")
	case salary.StatusCancelled:
		return errors.PreconditionFailed("salary is cancelled")
	}
	if amount.GreaterThan(rec.PendingAmount) {
		return errors.InvalidInput("amount", fmt.Sprintf("cannot exceed the pending amount of %s", rec.PendingAmount.StringFixed(2)))
	}
	return nil
}

func checkNet(verr *errors.ValidationErrors, rec *salary.Record) {
	if rec.NetSalary.IsNegative() && !verr.Has("deductions.other") {
		verr.Add("deductions.other", "cannot exceed the gross salary")
	}
}
