package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-pg-salaries/internal/pkg/database"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
)

// Maintainer is a staff member who can be paid a salary.
type Maintainer struct {
	ID       string `json:"id"`
	PGID     string `json:"pgId"`
	BranchID string `json:"branchId"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// MaintainerRepository reads the maintainer directory
type MaintainerRepository struct {
	db *database.DB
}

// NewMaintainerRepository creates a new maintainer repository
func NewMaintainerRepository(db *database.DB) *MaintainerRepository {
	return &MaintainerRepository{db: db}
}

// GetByID retrieves a maintainer of a PG
func (r *MaintainerRepository) GetByID(ctx context.Context, id, pgID string) (*Maintainer, error) {
	query := `
		SELECT id, pg_id, branch_id, name, is_active
		FROM maintainers
		WHERE id = $1 AND pg_id = $2
	`

	m := &Maintainer{}
	err := r.db.QueryRow(ctx, query, id, pgID).Scan(
		&m.ID,
		&m.PGID,
		&m.BranchID,
		&m.Name,
		&m.IsActive,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("maintainer", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get maintainer")
	}
	return m, nil
}
