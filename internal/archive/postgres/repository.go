package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"
)

const defaultSampleTable = "telemetry_samples"

// SampleRepository persists accepted samples to Postgres, one row per
// strategy, met and kind. It subscribes to SampleAccepted events, so archive
// failures never reach the sampling path.
type SampleRepository struct {
	db      *sql.DB
	table   string
	session string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SampleRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SampleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithSession tags archived rows with a recording session identifier.
func WithSession(session string) RepositoryOption {
	return func(repo *SampleRepository) {
		repo.session = session
	}
}

// NewSampleRepository constructs a repository with the default table name.
func NewSampleRepository(db *sql.DB, opts ...RepositoryOption) *SampleRepository {
	repo := &SampleRepository{db: db, table: defaultSampleTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertSample upserts one accepted sample.
func (r *SampleRepository) InsertSample(ctx context.Context, strategy string, met int64, values map[telemetry.Kind]float64) error {
	if r == nil || r.db == nil {
		return errors.New("archive repo: nil db")
	}
	if strategy == "" {
		return errors.New("archive repo: empty strategy")
	}
	if len(values) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	session_id,
	strategy,
	met,
	kind,
	value
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (session_id, strategy, met, kind)
DO UPDATE SET
	value = EXCLUDED.value,
	updated_at = NOW()`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for kind, value := range values {
		if _, err := stmt.ExecContext(ctx, r.session, strategy, met, kind.String(), value); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// HandleSampleAccepted archives one accepted sample event.
func (r *SampleRepository) HandleSampleAccepted(ctx context.Context, event any) error {
	sample, ok := event.(events.SampleAccepted)
	if !ok {
		return errors.New("archive repo: unexpected event type")
	}
	return r.InsertSample(ctx, sample.Strategy, sample.Met, sample.Values)
}
