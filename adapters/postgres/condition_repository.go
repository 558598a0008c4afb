package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
)

// StoredCondition is the persisted view of an analyzed condition: the
// label, the usage log entry and the metrics record. Raw sample series
// stay on disk with the I/O collaborator; only derived metrics are
// stored.
type StoredCondition struct {
	Name              core.ConditionName `json:"name"`
	PhoneUsageMinutes *float64           `json:"phone_usage_minutes,omitempty"`
	Metrics           metrics.Record     `json:"metrics"`
	CreatedAt         core.Timestamp     `json:"created_at"`
	UpdatedAt         core.Timestamp     `json:"updated_at"`
}

// ConditionRepository persists analyzed conditions.
type ConditionRepository struct {
	db *sqlx.DB
}

// NewConditionRepository creates a new condition repository
func NewConditionRepository(db *sqlx.DB) *ConditionRepository {
	return &ConditionRepository{db: db}
}

// Migrate creates the conditions table if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS conditions (
		name TEXT PRIMARY KEY,
		phone_usage_minutes DOUBLE PRECISION,
		metrics JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate conditions table: %w", err)
	}
	return nil
}

// Save upserts a condition; re-analyzing a label replaces its stored
// metrics wholesale.
func (r *ConditionRepository) Save(ctx context.Context, name core.ConditionName, usage *float64, rec metrics.Record) error {
	metricsJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	query := `INSERT INTO conditions (name, phone_usage_minutes, metrics)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET phone_usage_minutes = EXCLUDED.phone_usage_minutes,
		    metrics = EXCLUDED.metrics,
		    updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, name.String(), usage, metricsJSON); err != nil {
		return fmt.Errorf("failed to save condition %s: %w", name, err)
	}
	return nil
}

// GetByName retrieves a stored condition by its label.
func (r *ConditionRepository) GetByName(ctx context.Context, name core.ConditionName) (*StoredCondition, error) {
	query := `SELECT name, phone_usage_minutes, metrics, created_at, updated_at
		FROM conditions WHERE name = $1`

	var (
		stored      StoredCondition
		rawName     string
		metricsJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, name.String()).Scan(
		&rawName, &stored.PhoneUsageMinutes, &metricsJSON, &stored.CreatedAt, &stored.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewConditionNotFoundError(name.String())
		}
		return nil, fmt.Errorf("failed to get condition %s: %w", name, err)
	}

	stored.Name = core.ConditionName(rawName)
	if err := json.Unmarshal(metricsJSON, &stored.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics for %s: %w", name, err)
	}
	return &stored, nil
}

// List retrieves all stored conditions ordered by label.
func (r *ConditionRepository) List(ctx context.Context) ([]StoredCondition, error) {
	query := `SELECT name, phone_usage_minutes, metrics, created_at, updated_at
		FROM conditions ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	defer rows.Close()

	var out []StoredCondition
	for rows.Next() {
		var (
			stored      StoredCondition
			rawName     string
			metricsJSON []byte
		)
		if err := rows.Scan(&rawName, &stored.PhoneUsageMinutes, &metricsJSON, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		stored.Name = core.ConditionName(rawName)
		if err := json.Unmarshal(metricsJSON, &stored.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics for %s: %w", rawName, err)
		}
		out = append(out, stored)
	}
	return out, rows.Err()
}

// Delete removes a stored condition.
func (r *ConditionRepository) Delete(ctx context.Context, name core.ConditionName) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conditions WHERE name = $1`, name.String())
	if err != nil {
		return fmt.Errorf("failed to delete condition %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return core.NewConditionNotFoundError(name.String())
	}
	return nil
}
