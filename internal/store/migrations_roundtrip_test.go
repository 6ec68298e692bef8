package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
	return err
}

func TestMigrationsRoundTripPostgres(t *testing.T) {
	s := openTestStore(t)
	db := s.db
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	dir := filepath.Join("..", "..", "db", "migrations")

	migrations, err := LoadMigrations(dir)
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if again, err := ApplyMigrations(ctx, db, dir); err != nil || len(again) != 0 {
		t.Fatalf("expected an idempotent second pass, got %v, %v", again, err)
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		name, err := RollbackMigration(ctx, db, dir)
		if err != nil {
			t.Fatalf("RollbackMigration() error = %v", err)
		}
		if name != migrations[i].Name {
			t.Fatalf("expected to roll back %s, got %s", migrations[i].Name, name)
		}
	}
	if name, err := RollbackMigration(ctx, db, dir); err != nil || name != "" {
		t.Fatalf("expected nothing left to roll back, got %q, %v", name, err)
	}

	applied, err := ApplyMigrations(ctx, db, dir)
	if err != nil {
		t.Fatalf("ApplyMigrations() after rollback error = %v", err)
	}
	if len(applied) != len(migrations) {
		t.Fatalf("expected %d migrations reapplied, got %v", len(migrations), applied)
	}
}
