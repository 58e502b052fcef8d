package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-pg-salaries/internal/pkg/database"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
)

// Audit actions recorded against a salary.
const (
	AuditActionCreated         = "created"
	AuditActionUpdated         = "updated"
	AuditActionPaymentRecorded = "payment_recorded"
	AuditActionCancelled       = "cancelled"
	AuditActionDeleted         = "deleted"
)

// AuditEntry is one immutable row of the salary audit trail.
type AuditEntry struct {
	ID           string         `json:"id"`
	SalaryID     string         `json:"salaryId"`
	PGID         string         `json:"pgId"`
	Action       string         `json:"action"`
	PerformedBy  string         `json:"performedBy"`
	PerformedAt  time.Time      `json:"performedAt"`
	StatusBefore *string        `json:"statusBefore,omitempty"`
	StatusAfter  *string        `json:"statusAfter,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// AuditRepository appends and reads salary audit log entries.
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit entry. The table rejects updates and deletes,
// so this is the only mutation exposed.
func (r *AuditRepository) Append(ctx context.Context, entry *AuditEntry) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal audit metadata")
		}
	}

	query := `
		INSERT INTO salary_audit_log
		    (salary_id, pg_id, action, performed_by, status_before, status_after, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, performed_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.SalaryID,
		entry.PGID,
		entry.Action,
		entry.PerformedBy,
		entry.StatusBefore,
		entry.StatusAfter,
		metadataJSON,
	).Scan(&entry.ID, &entry.PerformedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append audit entry")
	}
	return nil
}

// ListBySalary returns the audit trail of a salary, oldest first.
func (r *AuditRepository) ListBySalary(ctx context.Context, salaryID, pgID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, salary_id, pg_id, action, performed_by, performed_at,
		       status_before, status_after, metadata
		FROM salary_audit_log
		WHERE salary_id = $1 AND pg_id = $2
		ORDER BY performed_at ASC
	`

	rows, err := r.db.Query(ctx, query, salaryID, pgID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get audit log")
	}
	defer rows.Close()

	entries := make([]*AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read audit log")
	}
	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*AuditEntry, error) {
	var (
		entry        AuditEntry
		metadataJSON []byte
	)
	err := row.Scan(
		&entry.ID,
		&entry.SalaryID,
		&entry.PGID,
		&entry.Action,
		&entry.PerformedBy,
		&entry.PerformedAt,
		&entry.StatusBefore,
		&entry.StatusAfter,
		&metadataJSON,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan audit entry")
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to unmarshal audit metadata")
		}
	}
	return &entry, nil
}
