package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// Claim is one insurance claim line for a tenant, identified by (TenantID, ClaimID).
type Claim struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	ClaimID        string          `json:"claim_id"`
	EncounterType  *string         `json:"encounter_type,omitempty"`
	ServiceDate    *time.Time      `json:"service_date,omitempty"`
	NationalID     *string         `json:"national_id,omitempty"`
	MemberID       *string         `json:"member_id,omitempty"`
	FacilityID     *string         `json:"facility_id,omitempty"`
	UniqueID       *string         `json:"unique_id,omitempty"`
	DiagnosisCodes []string        `json:"diagnosis_codes"`
	ServiceCode    *string         `json:"service_code,omitempty"`
	PaidAmountAED  decimal.Decimal `json:"paid_amount_aed"`
	ApprovalNumber *string         `json:"approval_number,omitempty"`

	Status            constants.ClaimStatus `json:"status"`
	ErrorType         constants.ErrorType   `json:"error_type"`
	ErrorExplanation  string                `json:"error_explanation"`
	RecommendedAction string                `json:"recommended_action"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
