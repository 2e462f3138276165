package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
)

// Sheet names in an exported workbook.
const (
	ClaimsSheet  = "Claims"
	MetricsSheet = "Metrics"
)

// ClaimsLimit caps the claims written, newest update first.
const ClaimsLimit = 1000

// Service produces XLSX bytes for a tenant's validation results.
type Service struct {
	claimsRepo  repository.ClaimRepository
	metricsRepo repository.MetricRepository
	logger      *slog.Logger
}

func NewService(claims repository.ClaimRepository, metrics repository.MetricRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{claimsRepo: claims, metricsRepo: metrics, logger: logger}
}

// ExportResultsXLSX returns a workbook with a Claims sheet and a Metrics sheet
// holding the latest snapshot. The Metrics sheet is left with headers only
// when no run has completed yet.
func (s *Service) ExportResultsXLSX(ctx context.Context, tenantID uuid.UUID) ([]byte, error) {
	start := time.Now()

	claims, err := s.claimsRepo.ListRecent(ctx, tenantID, ClaimsLimit)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	metric, err := s.metricsRepo.Latest(ctx, tenantID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("query metric: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), ClaimsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(MetricsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(ClaimsSheet)
	f.SetActiveSheet(activeIndex)

	if err := writeClaims(f, claims); err != nil {
		return nil, err
	}
	if err := writeMetric(f, metric); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"tenant_id", tenantID.String(),
		"rows", len(claims),
		"has_metric", metric != nil,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeClaims(f *excelize.File, claims []*entity.Claim) error {
	if err := writeRow(f, ClaimsSheet, 1,
		"Claim ID", "Service Code", "Paid (AED)", "Status", "Error Type", "Explanation", "Recommendation",
	); err != nil {
		return err
	}
	for i, c := range claims {
		paid, _ := c.PaidAmountAED.Float64()
		if err := writeRow(f, ClaimsSheet, i+2,
			c.ClaimID,
			deref(c.ServiceCode),
			paid,
			string(c.Status),
			string(c.ErrorType),
			truncate(c.ErrorExplanation, 1000),
			c.RecommendedAction,
		); err != nil {
			return err
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(ClaimsSheet, "A", "B", 14)
	_ = f.SetColWidth(ClaimsSheet, "C", "E", 16)
	_ = f.SetColWidth(ClaimsSheet, "F", "F", 70)
	_ = f.SetColWidth(ClaimsSheet, "G", "G", 48)
	return nil
}

func writeMetric(f *excelize.File, m *entity.Metric) error {
	if err := writeRow(f, MetricsSheet, 1, "Error Type", "Claims", "Paid (AED)"); err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	row := 2
	for _, et := range metricKeys(m) {
		paid, _ := m.PaidByError[et].Float64()
		if err := writeRow(f, MetricsSheet, row, string(et), m.CountsByError[et], paid); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, MetricsSheet, row+1, "As of", m.AsOf.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	_ = f.SetColWidth(MetricsSheet, "A", "A", 20)
	_ = f.SetColWidth(MetricsSheet, "B", "C", 14)
	return nil
}

// metricKeys lists the known buckets first, then custom error types sorted by name.
func metricKeys(m *entity.Metric) []constants.ErrorType {
	keys := append([]constants.ErrorType(nil), constants.KnownErrorTypes...)
	seen := map[constants.ErrorType]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	var extra []constants.ErrorType
	for k := range m.CountsByError {
		if !seen[k] {
			extra = append(extra, k)
			seen[k] = true
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
