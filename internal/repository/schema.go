package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

type columnTypes struct {
	ID, Time, Date, Money, Float, Bool, JSON string
}

var dialectTypes = map[string]columnTypes{
	dialect.Postgres: {ID: "UUID", Time: "TIMESTAMPTZ", Date: "DATE", Money: "NUMERIC(12,2)", Float: "DOUBLE PRECISION", Bool: "BOOLEAN", JSON: "JSONB"},
	dialect.SQLite:   {ID: "TEXT", Time: "TEXT", Date: "TEXT", Money: "TEXT", Float: "REAL", Bool: "BOOLEAN", JSON: "TEXT"},
}

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS tenants (
	id {{ID}} PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	created_at {{TIME}} NOT NULL
);

CREATE TABLE IF NOT EXISTS rule_sets (
	id {{ID}} PRIMARY KEY,
	tenant_id {{ID}} NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	version TEXT NOT NULL DEFAULT 'v1',
	technical_rules {{JSON}} NOT NULL,
	medical_rules {{JSON}} NOT NULL,
	is_active {{BOOL}} NOT NULL DEFAULT TRUE,
	created_at {{TIME}} NOT NULL,
	UNIQUE (tenant_id, name, version)
);

CREATE TABLE IF NOT EXISTS claims (
	id {{ID}} PRIMARY KEY,
	tenant_id {{ID}} NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	claim_id TEXT NOT NULL,
	encounter_type TEXT,
	service_date {{DATE}},
	national_id TEXT,
	member_id TEXT,
	facility_id TEXT,
	unique_id TEXT,
	diagnosis_codes {{JSON}} NOT NULL,
	service_code TEXT,
	paid_amount_aed {{MONEY}} NOT NULL,
	approval_number TEXT,
	status TEXT NOT NULL DEFAULT 'Uploaded',
	error_type TEXT NOT NULL DEFAULT 'No error',
	error_explanation TEXT NOT NULL DEFAULT '',
	recommended_action TEXT NOT NULL DEFAULT '',
	created_at {{TIME}} NOT NULL,
	updated_at {{TIME}} NOT NULL,
	UNIQUE (tenant_id, claim_id)
);
CREATE INDEX IF NOT EXISTS claims_tenant_updated_idx ON claims (tenant_id, updated_at);

CREATE TABLE IF NOT EXISTS refined_claims (
	id {{ID}} PRIMARY KEY,
	tenant_id {{ID}} NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	claim_id {{ID}} NOT NULL UNIQUE REFERENCES claims(id) ON DELETE CASCADE,
	is_valid {{BOOL}} NOT NULL,
	tech_errors {{JSON}} NOT NULL,
	med_errors {{JSON}} NOT NULL,
	ai_findings {{JSON}} NOT NULL,
	score {{FLOAT}} NOT NULL,
	updated_at {{TIME}} NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	id {{ID}} PRIMARY KEY,
	tenant_id {{ID}} NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	rule_set_id {{ID}} REFERENCES rule_sets(id) ON DELETE SET NULL,
	as_of {{TIME}} NOT NULL,
	counts_by_error {{JSON}} NOT NULL,
	paid_by_error {{JSON}} NOT NULL
);
CREATE INDEX IF NOT EXISTS metrics_tenant_as_of_idx ON metrics (tenant_id, as_of);

CREATE TABLE IF NOT EXISTS job_runs (
	id {{ID}} PRIMARY KEY,
	tenant_id {{ID}} NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	rule_set_id {{ID}} REFERENCES rule_sets(id) ON DELETE SET NULL,
	job_type TEXT NOT NULL,
	status TEXT NOT NULL,
	detail {{JSON}} NOT NULL,
	created_at {{TIME}} NOT NULL,
	finished_at {{TIME}}
);
CREATE INDEX IF NOT EXISTS job_runs_tenant_created_idx ON job_runs (tenant_id, created_at);
`

// SchemaStatements returns the DDL for the given dialect, one statement per entry.
func SchemaStatements(d string) ([]string, error) {
	t, ok := dialectTypes[d]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
	ddl := strings.NewReplacer(
		"{{ID}}", t.ID,
		"{{TIME}}", t.Time,
		"{{DATE}}", t.Date,
		"{{MONEY}}", t.Money,
		"{{FLOAT}}", t.Float,
		"{{BOOL}}", t.Bool,
		"{{JSON}}", t.JSON,
	).Replace(schemaTemplate)

	var stmts []string
	for _, s := range strings.Split(ddl, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	stmts, err := SchemaStatements(db.Dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
