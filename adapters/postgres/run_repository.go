package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"pacbayes/domain/connectivity"
	"pacbayes/domain/core"
	"pacbayes/internal/errors"
	"pacbayes/ports"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// EnsureSchema creates the run ledger table if it does not exist
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pac_runs (
			id          UUID PRIMARY KEY,
			created_at  TIMESTAMPTZ NOT NULL,
			settings    JSONB NOT NULL,
			result      JSONB NOT NULL,
			thresholded JSONB NOT NULL
		)
	`)
	return errors.Wrap(err, "failed to create pac_runs table")
}

type runRow struct {
	ID          string         `db:"id"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	Settings    types.JSONText `db:"settings"`
	Result      types.JSONText `db:"result"`
	Thresholded types.JSONText `db:"thresholded"`
}

// Save persists one run manifest
func (r *RunRepositoryImpl) Save(ctx context.Context, manifest *connectivity.RunManifest) error {
	settings, err := json.Marshal(manifest.Settings)
	if err != nil {
		return errors.Wrap(err, "failed to marshal run settings")
	}
	result, err := json.Marshal(manifest.Result)
	if err != nil {
		return errors.Wrap(err, "failed to marshal run result")
	}
	thresholded, err := json.Marshal(manifest.Thresholded)
	if err != nil {
		return errors.Wrap(err, "failed to marshal thresholded matrix")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pac_runs (id, created_at, settings, result, thresholded)
		VALUES ($1, $2, $3, $4, $5)
	`, manifest.ID.String(), manifest.CreatedAt.Time(),
		types.JSONText(settings), types.JSONText(result), types.JSONText(thresholded))
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", manifest.ID)
	}
	return nil
}

// Get retrieves one run manifest by id
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*connectivity.RunManifest, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, created_at, settings, result, thresholded
		FROM pac_runs
		WHERE id = $1
	`, id.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load run %s", id)
	}
	return rowToManifest(&row)
}

// List returns the most recent run manifests
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]*connectivity.RunManifest, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, created_at, settings, result, thresholded
		FROM pac_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	manifests := make([]*connectivity.RunManifest, 0, len(rows))
	for i := range rows {
		m, err := rowToManifest(&rows[i])
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

func rowToManifest(row *runRow) (*connectivity.RunManifest, error) {
	m := &connectivity.RunManifest{
		ID: core.RunID(row.ID),
	}
	if row.CreatedAt.Valid {
		m.CreatedAt = core.NewTimestamp(row.CreatedAt.Time)
	}
	if err := json.Unmarshal(row.Settings, &m.Settings); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal run settings")
	}
	if err := json.Unmarshal(row.Result, &m.Result); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal run result")
	}
	if err := json.Unmarshal(row.Thresholded, &m.Thresholded); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal thresholded matrix")
	}
	return m, nil
}
