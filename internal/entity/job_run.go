package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// JobRun is the audit record of one pipeline execution.
type JobRun struct {
	ID         uuid.UUID           `json:"id"`
	TenantID   uuid.UUID           `json:"tenant_id"`
	RuleSetID  *uuid.UUID          `json:"rule_set_id,omitempty"`
	JobType    string              `json:"job_type"`
	Status     constants.JobStatus `json:"status"`
	Detail     map[string]any      `json:"detail"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// ErrorDetail returns detail["error"] as a string, "" when absent.
func (j *JobRun) ErrorDetail() string {
	if j == nil || j.Detail == nil {
		return ""
	}
	s, _ := j.Detail["error"].(string)
	return s
}
