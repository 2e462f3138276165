package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/repository/storetest"
)

func openTestDB(t *testing.T) *repository.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "claims.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close(nil) })
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) *repository.Store {
		return repository.NewStore(openTestDB(t), nil)
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := repository.Migrate(context.Background(), db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := db.HealthCheck(context.Background(), 0, nil); err != nil {
		t.Fatalf("health check: %v", err)
	}
}

func TestSchemaStatementsRejectUnknownDialect(t *testing.T) {
	if _, err := repository.SchemaStatements("oracle"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
	stmts, err := repository.SchemaStatements("postgres")
	if err != nil || len(stmts) == 0 {
		t.Fatalf("postgres schema: %d statements, %v", len(stmts), err)
	}
}
