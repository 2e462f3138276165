package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// Metric is an append-only snapshot of claim counts and paid sums per error type.
type Metric struct {
	ID            uuid.UUID                               `json:"id"`
	TenantID      uuid.UUID                               `json:"tenant_id"`
	RuleSetID     *uuid.UUID                              `json:"rule_set_id,omitempty"`
	AsOf          time.Time                               `json:"as_of"`
	CountsByError map[constants.ErrorType]int             `json:"counts_by_error"`
	PaidByError   map[constants.ErrorType]decimal.Decimal `json:"paid_by_error"`
}
