// Package ingest loads claim and rule files into a tenant's store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/common"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/rules"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath string
	Format     string
	Claims     int
	IngestedAt time.Time
	Err        string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
	Claims    uint32
}

// RuleUpload names the rule set an upload creates or replaces.
type RuleUpload struct {
	Name          string
	Version       string
	TechnicalPath string
	MedicalPath   string
}

// Ingestor writes parsed files through the repository contracts.
type Ingestor struct {
	tenants  repository.TenantRepository
	ruleSets repository.RuleSetRepository
	claims   repository.ClaimRepository
	logger   *slog.Logger
}

func NewIngestor(store *repository.Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		tenants:  store.Tenants,
		ruleSets: store.RuleSets,
		claims:   store.Claims,
		logger:   logger,
	}
}

func (i *Ingestor) validateTenant(ctx context.Context, tenantID uuid.UUID) error {
	if _, err := i.tenants.Get(ctx, tenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return common.NotFoundErrorf("tenant %s not found", tenantID)
		}
		return fmt.Errorf("check tenant: %w", err)
	}
	return nil
}

// IngestFile upserts every claim in path for the tenant. A file is loaded
// completely before anything is written.
func (i *Ingestor) IngestFile(ctx context.Context, tenantID uuid.UUID, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}
	format := constants.MapExtToFormat(constants.ClaimFileExtensions, filepath.Ext(path))
	if format == "" {
		return out, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	out.Format = format
	if err := i.validateTenant(ctx, tenantID); err != nil {
		return out, err
	}

	parsed, err := LoadClaimsFile(path)
	if err != nil {
		i.logger.Warn("ingest.claims.parse_failed", "path", path, "error", err)
		return out, err
	}
	for _, c := range parsed {
		c.TenantID = tenantID
		if _, err := i.claims.UpsertByClaimID(ctx, c); err != nil {
			return out, fmt.Errorf("upsert claim %s: %w", c.ClaimID, err)
		}
		out.Claims++
	}
	out.IngestedAt = time.Now().UTC()
	i.logger.Info("ingest.claims.ok", "tenant_id", tenantID, "path", path, "format", format, "claims", out.Claims)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested, and calls
// IngestFile for each claim file. Per-file failures are recorded, not returned.
func (i *Ingestor) IngestDirectory(ctx context.Context, tenantID uuid.UUID, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.ValidationErrorf("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsClaimFile(path) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestFile(ctx, tenantID, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		stats.Claims += uint32(r.Claims)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// UploadRules loads the technical and medical files, validates them, and
// upserts the rule set by (tenant, name, version) as the active one.
// An empty path yields an empty group.
func (i *Ingestor) UploadRules(ctx context.Context, tenantID uuid.UUID, up RuleUpload) (*entity.RuleSet, error) {
	if err := i.validateTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	if up.Name == "" {
		up.Name = "default"
	}
	if up.Version == "" {
		up.Version = "v1"
	}

	rs := &entity.RuleSet{TenantID: tenantID, Name: up.Name, Version: up.Version, IsActive: true}
	var err error
	if up.TechnicalPath != "" {
		if rs.TechnicalRules, err = LoadRulesFile(up.TechnicalPath); err != nil {
			return nil, err
		}
	}
	if up.MedicalPath != "" {
		if rs.MedicalRules, err = LoadRulesFile(up.MedicalPath); err != nil {
			return nil, err
		}
	}
	if err := rules.ValidateRuleSet(rs); err != nil {
		return nil, common.NewAppError(common.CodeValidation, "invalid rule set", errors.Join(common.ErrValidation, err))
	}

	saved, err := i.ruleSets.Upsert(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("upsert rule set: %w", err)
	}
	i.logger.Info("ingest.rules.ok",
		"tenant_id", tenantID,
		"rule_set_id", saved.ID,
		"name", saved.Name,
		"version", saved.Version,
		"technical", saved.TechnicalRules.Len(),
		"medical", saved.MedicalRules.Len(),
	)
	return saved, nil
}
