package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

// aireview repeats the AI review of one stored claim to compare model answers.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 3 {
		logger.Error("usage: aireview <tenant_code> <claim_id> [times]")
		os.Exit(2)
	}
	tenantCode, claimID := os.Args[1], os.Args[2]
	times := 3
	if len(os.Args) >= 4 {
		if n, err := strconv.Atoi(os.Args[3]); err == nil && n > 0 {
			times = n
		}
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if cfg.AI.APIKey == "" {
		logger.Error("AI_API_KEY env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := common.InitDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)
	store := repository.NewStore(db, logger)

	t, err := tenant.NewService(store.Tenants, logger).Resolve(ctx, tenantCode)
	if err != nil {
		logger.Error("resolve tenant", "tenant", tenantCode, "error", err)
		os.Exit(1)
	}
	rs, err := store.RuleSets.ActiveForTenant(ctx, t.ID)
	if err != nil {
		logger.Error("load active rule set", "tenant", tenantCode, "error", err)
		os.Exit(1)
	}
	claim, err := findClaim(ctx, store, t.ID, claimID)
	if err != nil {
		logger.Error("load claim", "claim_id", claimID, "error", err)
		os.Exit(1)
	}

	reviewer := common.NewReviewer(cfg.AI, logger)
	for i := 1; i <= times; i++ {
		start := time.Now()
		logger.Info("review.run.start", "iter", i, "claim_id", claimID, "provider", cfg.AI.Provider)
		findings := reviewer.Review(ctx, claim, rs)
		logger.Info("review.run.ok", "iter", i, "findings", len(findings), "elapsed_ms", time.Since(start).Milliseconds())
		for _, f := range findings {
			logger.Info("review.finding", "iter", i, "rule_id", f.RuleID, "error_type", f.ErrorType, "explanation", f.Explanation)
		}
		time.Sleep(750 * time.Millisecond)
	}

	logger.Info("done", "claim_id", claimID, "times", times)
}

func findClaim(ctx context.Context, store *repository.Store, tenantID uuid.UUID, claimID string) (*entity.Claim, error) {
	claims, err := store.Claims.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, c := range claims {
		if c.ClaimID == claimID {
			return c, nil
		}
	}
	return nil, common.NotFoundErrorf("claim %s not found", claimID)
}
