package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"krpc-telemetry/internal/telemetry/application/events"
	telemetry "krpc-telemetry/internal/telemetry/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestSampleRepository_InsertSample_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	table := "telemetry_samples_test"
	ctx := context.Background()
	_, err = db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+table+` (
	session_id TEXT NOT NULL,
	strategy TEXT NOT NULL,
	met BIGINT NOT NULL,
	kind TEXT NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, strategy, met, kind)
)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	defer func() {
		_, _ = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table)
	}()

	repo := NewSampleRepository(db, WithTable(table), WithSession("test-session"))

	sample := events.SampleAccepted{
		Strategy: "orbital_velocity",
		Met:      5,
		Values: map[telemetry.Kind]float64{
			telemetry.KindOrbitalSpeed: 2295.7,
		},
	}
	if err := repo.HandleSampleAccepted(ctx, sample); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Upsert: replaying the same met must not duplicate rows.
	sample.Values[telemetry.KindOrbitalSpeed] = 2301.2
	if err := repo.HandleSampleAccepted(ctx, sample); err != nil {
		t.Fatalf("handle replay: %v", err)
	}

	var count int
	var value float64
	row := db.QueryRowContext(ctx, "SELECT COUNT(*), MAX(value) FROM "+table+" WHERE session_id = $1", "test-session")
	if err := row.Scan(&count, &value); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
	if value != 2301.2 {
		t.Fatalf("expected updated value 2301.2, got %v", value)
	}
}

func TestSampleRepository_NilDB(t *testing.T) {
	repo := NewSampleRepository(nil)
	err := repo.InsertSample(context.Background(), "orbital_velocity", 0, map[telemetry.Kind]float64{telemetry.KindOrbitalSpeed: 1})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestSampleRepository_UnexpectedEvent(t *testing.T) {
	repo := NewSampleRepository(nil)
	if err := repo.HandleSampleAccepted(context.Background(), "not a sample"); err == nil {
		t.Fatal("expected error for unexpected event type")
	}
}
