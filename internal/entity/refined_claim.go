package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefinedClaim is the persisted outcome of the latest pipeline run for a claim.
type RefinedClaim struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ClaimID    uuid.UUID `json:"claim_id"`
	IsValid    bool      `json:"is_valid"`
	TechErrors []Finding `json:"tech_errors"`
	MedErrors  []Finding `json:"med_errors"`
	AIFindings []Finding `json:"ai_findings"`
	Score      float64   `json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}
