package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
)

// NewStore returns SQL-backed repositories over db.
func NewStore(db *DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	base := sqlRepo{db: db.SQL, dialect: db.Dialect, logger: logger}
	return &Store{
		Tenants:       NewTenantRepository(base),
		RuleSets:      NewRuleSetRepository(base),
		Claims:        NewClaimRepository(base),
		RefinedClaims: NewRefinedClaimRepository(base),
		Metrics:       NewMetricRepository(base),
		JobRuns:       NewJobRunRepository(base),
	}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlRepo struct {
	db      querier
	dialect string
	logger  *slog.Logger
}

func (r sqlRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.dialect)
}

type querySource interface {
	Query() (string, []any)
}

func (r sqlRepo) exec(ctx context.Context, q querySource) (sql.Result, error) {
	query, args := q.Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	return res, mapError(err)
}

func (r sqlRepo) query(ctx context.Context, q querySource) (*sql.Rows, error) {
	query, args := q.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	return rows, mapError(err)
}

func (r sqlRepo) queryRow(ctx context.Context, q querySource) *sql.Row {
	query, args := q.Query()
	return r.db.QueryRowContext(ctx, query, args...)
}

// mapError maps driver errors onto the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errors.Join(ErrDuplicate, err)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
