package entity

import (
	"time"

	"github.com/google/uuid"
)

// Tenant owns rule sets, claims, metrics and job runs.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
