package common

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// InitDatabase opens the configured database and applies the schema.
func InitDatabase(ctx context.Context, cfg DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.DSN,
		SQLitePath:       cfg.SQLitePath,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, NewAppError(CodeDatabase, "open database", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close(logger)
		return nil, NewAppError(CodeDatabase, "migrate database", err)
	}
	return db, nil
}
