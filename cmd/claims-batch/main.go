package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/export"
	"github.com/joseph-ayodele/claims-validator/internal/ingest"
	"github.com/joseph-ayodele/claims-validator/internal/pipeline"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		inmem      = flag.Bool("inmem", false, "use an in-memory SQLite database")
		dir        = flag.String("dir", "", "directory of claim files to validate (required)")
		tenantCode = flag.String("tenant", "batch", "tenant code to load claims into")
		technical  = flag.String("technical", "", "technical rules file")
		medical    = flag.String("medical", "", "medical rules file")
		out        = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), *tenantCode+"-results.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.DSN, cfg.Database.SQLitePath = "", ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	db, err := common.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)
	store := repository.NewStore(db, logger)

	t, err := tenant.NewService(store.Tenants, logger).GetOrCreate(ctx, tenant.CreateTenantRequest{Code: *tenantCode})
	if err != nil {
		logger.Error("failed to get or create tenant", "error", err)
		os.Exit(1)
	}
	logger.Info("using tenant", "id", t.ID, "code", t.Code)

	ingestor := ingest.NewIngestor(store, logger)
	if *technical != "" || *medical != "" {
		rs, err := ingestor.UploadRules(ctx, t.ID, ingest.RuleUpload{TechnicalPath: *technical, MedicalPath: *medical})
		if err != nil {
			logger.Error("failed to upload rules", "error", err)
			os.Exit(1)
		}
		logger.Info("rules uploaded", "rule_set_id", rs.ID, "technical", rs.TechnicalRules.Len(), "medical", rs.MedicalRules.Len())
	}

	logger.Info("starting ingestion", "dir", *dir, "tenant", t.Code)
	_, stats, err := ingestor.IngestDirectory(ctx, t.ID, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"claims", stats.Claims)

	processor := pipeline.NewProcessor(store, logger,
		pipeline.WithReviewer(common.NewReviewer(cfg.AI, logger)),
		pipeline.WithAIConcurrency(cfg.AI.Concurrency),
	)
	run, err := processor.RunActive(ctx, t.ID)
	if err != nil {
		logger.Error("validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := export.NewService(store.Claims, store.Metrics, logger).ExportResultsXLSX(ctx, t.ID)
	if err != nil {
		logger.Error("failed to export results", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete", "job_id", run.ID, "claims", stats.Claims, "output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files ingested: %d of %d\n", stats.Succeeded, stats.Matched)
	fmt.Printf("- Claims ingested: %d\n", stats.Claims)
	fmt.Printf("- Run: %s (%s)\n", run.ID, run.Status)
	fmt.Printf("- Output: %s\n", *out)
}
