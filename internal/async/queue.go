package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

var (
	// ErrAlreadyQueued means a run for the tenant is queued or running.
	ErrAlreadyQueued = errors.New("validation already queued for tenant")
	// ErrQueueFull means every queue slot is taken.
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed means the queue is shutting down.
	ErrQueueClosed = errors.New("queue is shutting down")
)

// Job is one queued validation run.
type Job struct {
	Run         *entity.JobRun
	RuleSet     *entity.RuleSet
	SubmittedAt time.Time
}

// Queue accepts tenants for background validation.
type Queue interface {
	Submit(ctx context.Context, tenantID uuid.UUID) (*entity.JobRun, error)
	Shutdown(ctx context.Context)
}
