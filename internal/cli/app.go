package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

type globalFlags struct {
	sqlite  string
	dbURL   string
	verbose bool
	json    bool
	noColor bool
}

// app carries state shared by every command of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  globalFlags

	cfg    *common.Config
	logger *slog.Logger
	styles styles

	db    *repository.DB
	store *repository.Store
}

func (a *app) init() error {
	a.cfg = common.LoadConfig()
	if a.flags.sqlite != "" {
		a.cfg.Database.SQLitePath = a.flags.sqlite
		a.cfg.Database.DSN = ""
	}
	if a.flags.dbURL != "" {
		a.cfg.Database.DSN = a.flags.dbURL
	}
	a.logger = a.newLogger()
	a.styles = newStyles(a.flags.noColor)
	return nil
}

// open connects and migrates on first use.
func (a *app) open(ctx context.Context) (*repository.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if err := a.cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	db, err := common.InitDatabase(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.store = repository.NewStore(db, a.logger)
	return a.store, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close(a.logger)
		a.db, a.store = nil, nil
	}
}

func (a *app) tenant(ctx context.Context, code string) (*entity.Tenant, error) {
	store, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	return tenant.NewService(store.Tenants, a.logger).Resolve(ctx, code)
}

func (a *app) processor(store *repository.Store) (*pipeline.Processor, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	reviewer := common.NewReviewer(a.cfg.AI, a.logger)
	return pipeline.NewProcessor(store, a.logger,
		pipeline.WithReviewer(reviewer),
		pipeline.WithAIConcurrency(a.cfg.AI.Concurrency),
	), nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
