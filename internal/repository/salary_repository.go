package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-pg-salaries/internal/pkg/database"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
)

// uniqueActivePeriod is the partial unique index enforcing one active
// salary per maintainer and month.
const uniqueActivePeriod = "uq_salaries_active_period"

const salaryColumns = `
	id, pg_id, branch_id, maintainer_id, month_number, year,
	base_salary, bonus, overtime_hours, overtime_rate, overtime_amount, deductions_other,
	gross_salary, total_deductions, net_salary, paid_amount, pending_amount,
	status, edit_lock_expires_at, notes, is_active, version,
	created_by, updated_by, created_at, updated_at`

const paymentColumns = `
	id, salary_id, amount, payment_method, transaction_id, payment_date, notes,
	receipt_file_name, receipt_original_name, receipt_file_path, receipt_file_size, receipt_mime_type,
	paid_by, paid_at`

// SalaryFilter narrows List queries. PGID is required.
type SalaryFilter struct {
	PGID         string
	BranchID     *string
	MaintainerID *string
	Month        *salary.Month
	Year         *int
	Status       *salary.DisplayStatus
	// CurrentPeriod is salary.PeriodIndex of "now"; it splits pending
	// from overdue when Status filters on either.
	CurrentPeriod int
}

// SalaryRepository handles salary data operations
type SalaryRepository struct {
	db *database.DB
}

// NewSalaryRepository creates a new salary repository
func NewSalaryRepository(db *database.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

// Create inserts a salary and its initial payments. rec.ID is assigned
// by the caller.
func (r *SalaryRepository) Create(ctx context.Context, rec *salary.Record) error {
	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO salaries (id, pg_id, branch_id, maintainer_id, month, month_number, year,
			                      base_salary, bonus, overtime_hours, overtime_rate, overtime_amount,
			                      deductions_other, gross_salary, total_deductions, net_salary,
			                      paid_amount, pending_amount, status, edit_lock_expires_at,
			                      notes, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			        $17, $18, $19::salary_status, $20, $21, $22, $22)
			RETURNING is_active, version, created_at, updated_at
		`

		err := tx.QueryRow(ctx, query,
			rec.ID,
			rec.PGID,
			rec.BranchID,
			rec.MaintainerID,
			rec.Month.String(),
			int(rec.Month),
			rec.Year,
			rec.BaseSalary,
			rec.Bonus,
			rec.Overtime.Hours,
			rec.Overtime.Rate,
			rec.Overtime.Amount,
			rec.Deductions.Other,
			rec.GrossSalary,
			rec.TotalDeductions,
			rec.NetSalary,
			rec.PaidAmount,
			rec.PendingAmount,
			string(rec.Status),
			rec.EditLockExpiresAt,
			rec.Notes,
			rec.CreatedBy,
		).Scan(&rec.IsActive, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)

		if database.IsUniqueViolation(err, uniqueActivePeriod) {
			return errors.Conflict(fmt.Sprintf("salary for %s already exists for this maintainer", rec.Period()))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create salary")
		}

		for i := range rec.Payments {
			if err := insertPayment(ctx, tx, rec.ID, i+1, &rec.Payments[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByID retrieves an active salary with its payment ledger
func (r *SalaryRepository) GetByID(ctx context.Context, id, pgID string) (*salary.Record, error) {
	query := `SELECT ` + salaryColumns + `
		FROM salaries
		WHERE id = $1 AND pg_id = $2 AND is_active`

	rec, err := scanSalary(r.db.QueryRow(ctx, query, id, pgID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("salary", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get salary")
	}

	if err := r.loadPayments(ctx, []*salary.Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetActiveByPeriod retrieves the active salary of a maintainer for a period
func (r *SalaryRepository) GetActiveByPeriod(ctx context.Context, pgID, maintainerID string, month salary.Month, year int) (*salary.Record, error) {
	query := `SELECT ` + salaryColumns + `
		FROM salaries
		WHERE pg_id = $1 AND maintainer_id = $2 AND month_number = $3 AND year = $4 AND is_active`

	rec, err := scanSalary(r.db.QueryRow(ctx, query, pgID, maintainerID, int(month), year))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("salary", fmt.Sprintf("%s/%s %d", maintainerID, month, year))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get salary by period")
	}

	if err := r.loadPayments(ctx, []*salary.Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// List retrieves salaries with filtering and pagination. A limit of zero
// returns every match.
func (r *SalaryRepository) List(ctx context.Context, filter SalaryFilter, limit, offset int) ([]*salary.Record, int64, error) {
	where, args := buildSalaryWhere(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM salaries WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count salaries")
	}

	query := `SELECT ` + salaryColumns + ` FROM salaries WHERE ` + where +
		` ORDER BY year DESC, month_number DESC, created_at DESC`
	queryArgs := args
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		queryArgs = append(append([]any{}, args...), limit, offset)
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list salaries")
	}
	defer rows.Close()

	records := make([]*salary.Record, 0)
	for rows.Next() {
		rec, err := scanSalary(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan salary")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list salaries")
	}

	if err := r.loadPayments(ctx, records); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// updateSalarySQL stores every editable column of a salary, guarded by
// its version. The edit lock is only ever set once.
const updateSalarySQL = `
	UPDATE salaries
	SET base_salary = $3,
	    bonus = $4,
	    overtime_hours = $5,
	    overtime_rate = $6,
	    overtime_amount = $7,
	    deductions_other = $8,
	    gross_salary = $9,
	    total_deductions = $10,
	    net_salary = $11,
	    paid_amount = $12,
	    pending_amount = $13,
	    status = $14::salary_status,
	    edit_lock_expires_at = COALESCE(edit_lock_expires_at, $15),
	    notes = $16,
	    updated_by = $17,
	    version = version + 1,
	    updated_at = NOW()
	WHERE id = $1 AND version = $2 AND is_active
	RETURNING version, updated_at, edit_lock_expires_at
`

func updateSalaryArgs(rec *salary.Record) []any {
	return []any{
		rec.ID,
		rec.Version,
		rec.BaseSalary,
		rec.Bonus,
		rec.Overtime.Hours,
		rec.Overtime.Rate,
		rec.Overtime.Amount,
		rec.Deductions.Other,
		rec.GrossSalary,
		rec.TotalDeductions,
		rec.NetSalary,
		rec.PaidAmount,
		rec.PendingAmount,
		string(rec.Status),
		rec.EditLockExpiresAt,
		rec.Notes,
		rec.UpdatedBy,
	}
}

func scanUpdated(row pgx.Row, rec *salary.Record, action string) error {
	err := row.Scan(&rec.Version, &rec.UpdatedAt, &rec.EditLockExpiresAt)
	if err == pgx.ErrNoRows {
		return errors.Conflict("salary was modified by another request, reload and retry")
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to "+action)
	}
	return nil
}

// Update stores the components, totals and payment state of a salary,
// guarded by rec.Version.
func (r *SalaryRepository) Update(ctx context.Context, rec *salary.Record) error {
	return scanUpdated(r.db.QueryRow(ctx, updateSalarySQL, updateSalaryArgs(rec)...), rec, "update salary")
}

// AppendPayment stores the whole salary row and inserts the last entry of
// rec.Payments in one transaction, guarded by rec.Version. Component
// changes made alongside the payment are persisted with it.
func (r *SalaryRepository) AppendPayment(ctx context.Context, rec *salary.Record) error {
	if len(rec.Payments) == 0 {
		return errors.New(errors.ErrCodeInternal, "no payment to append")
	}
	seq := len(rec.Payments)

	return r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, updateSalarySQL, updateSalaryArgs(rec)...)
		if err := scanUpdated(row, rec, "update salary payment state"); err != nil {
			return err
		}
		return insertPayment(ctx, tx, rec.ID, seq, &rec.Payments[seq-1])
	})
}

// SoftDelete deactivates a salary, guarded by rec.Version
func (r *SalaryRepository) SoftDelete(ctx context.Context, rec *salary.Record) error {
	query := `
		UPDATE salaries
		SET is_active = FALSE,
		    updated_by = $3,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2 AND is_active
	`

	tag, err := r.db.Exec(ctx, query, rec.ID, rec.Version, rec.UpdatedBy)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete salary")
	}
	if tag.RowsAffected() == 0 {
		return errors.Conflict("salary was modified by another request, reload and retry")
	}

	rec.IsActive = false
	rec.Version++
	return nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, salaryID string, seq int, p *salary.Payment) error {
	query := `
		INSERT INTO salary_payments (salary_id, seq, amount, payment_method, transaction_id,
		                             payment_date, notes, receipt_file_name, receipt_original_name,
		                             receipt_file_path, receipt_file_size, receipt_mime_type,
		                             paid_by, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	var fileName, originalName, filePath, mimeType *string
	var fileSize *int64
	if rc := p.ReceiptImage; rc != nil {
		fileName, originalName, filePath, mimeType = &rc.FileName, &rc.OriginalName, &rc.FilePath, &rc.MimeType
		fileSize = &rc.FileSize
	}

	err := tx.QueryRow(ctx, query,
		salaryID,
		seq,
		p.Amount,
		string(p.PaymentMethod),
		p.TransactionID,
		p.PaymentDate,
		p.Notes,
		fileName,
		originalName,
		filePath,
		fileSize,
		mimeType,
		p.PaidBy,
		p.PaidAt,
	).Scan(&p.ID)

	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to record payment")
	}
	return nil
}

// loadPayments fills the ledger of each record in insertion order
func (r *SalaryRepository) loadPayments(ctx context.Context, records []*salary.Record) error {
	if len(records) == 0 {
		return nil
	}

	byID := make(map[string]*salary.Record, len(records))
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		rec.Payments = make([]salary.Payment, 0)
		byID[rec.ID] = rec
		ids = append(ids, rec.ID)
	}

	query := `SELECT ` + paymentColumns + `
		FROM salary_payments
		WHERE salary_id = ANY($1::uuid[])
		ORDER BY salary_id, seq`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to get salary payments")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                                          salary.Payment
			salaryID, method                           string
			fileName, originalName, filePath, mimeType *string
			fileSize                                   *int64
		)
		err := rows.Scan(
			&p.ID,
			&salaryID,
			&p.Amount,
			&method,
			&p.TransactionID,
			&p.PaymentDate,
			&p.Notes,
			&fileName,
			&originalName,
			&filePath,
			&fileSize,
			&mimeType,
			&p.PaidBy,
			&p.PaidAt,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to scan salary payment")
		}

		p.PaymentMethod = salary.PaymentMethod(method)
		if filePath != nil {
			p.ReceiptImage = &salary.ReceiptFile{FilePath: *filePath}
			if fileName != nil {
				p.ReceiptImage.FileName = *fileName
			}
			if originalName != nil {
				p.ReceiptImage.OriginalName = *originalName
			}
			if fileSize != nil {
				p.ReceiptImage.FileSize = *fileSize
			}
			if mimeType != nil {
				p.ReceiptImage.MimeType = *mimeType
			}
		}

		if rec, ok := byID[salaryID]; ok {
			rec.Payments = append(rec.Payments, p)
		}
	}

	return rows.Err()
}

func scanSalary(row pgx.Row) (*salary.Record, error) {
	var (
		rec         salary.Record
		monthNumber int
		status      string
	)
	err := row.Scan(
		&rec.ID,
		&rec.PGID,
		&rec.BranchID,
		&rec.MaintainerID,
		&monthNumber,
		&rec.Year,
		&rec.BaseSalary,
		&rec.Bonus,
		&rec.Overtime.Hours,
		&rec.Overtime.Rate,
		&rec.Overtime.Amount,
		&rec.Deductions.Other,
		&rec.GrossSalary,
		&rec.TotalDeductions,
		&rec.NetSalary,
		&rec.PaidAmount,
		&rec.PendingAmount,
		&status,
		&rec.EditLockExpiresAt,
		&rec.Notes,
		&rec.IsActive,
		&rec.Version,
		&rec.CreatedBy,
		&rec.UpdatedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Month = salary.Month(monthNumber)
	rec.Status = salary.PersistedStatus(status)
	return &rec, nil
}

// buildSalaryWhere renders the WHERE clause for filter. Overdue and
// pending split the stored pending status on the current period.
func buildSalaryWhere(filter SalaryFilter) (string, []any) {
	conds := []string{"is_active", "pg_id = $1"}
	args := []any{filter.PGID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.BranchID != nil {
		add("branch_id = $%d", *filter.BranchID)
	}
	if filter.MaintainerID != nil {
		add("maintainer_id = $%d", *filter.MaintainerID)
	}
	if filter.Month != nil {
		add("month_number = $%d", int(*filter.Month))
	}
	if filter.Year != nil {
		add("year = $%d", *filter.Year)
	}
	if filter.Status != nil {
		switch *filter.Status {
		case salary.DisplayOverdue:
			conds = append(conds, "status = 'pending'")
			add("(year * 12 + month_number - 1) < $%d", filter.CurrentPeriod)
		case salary.DisplayPending:
			conds = append(conds, "status = 'pending'")
			add("(year * 12 + month_number - 1) >= $%d", filter.CurrentPeriod)
		default:
			add("status = $%d::salary_status", string(*filter.Status))
		}
	}

	return strings.Join(conds, " AND "), args
}
