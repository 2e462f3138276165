package pipeline

import (
	"time"

	"github.com/joseph-ayodele/claims-validator/constants"
)

// AI review outcomes reported to the Recorder.
const (
	ReviewDisabled = "disabled"
	ReviewOK       = "ok"
	ReviewEmpty    = "empty"
)

// Recorder receives pipeline instrumentation events.
type Recorder interface {
	RunStarted(tenant string)
	RunFinished(tenant string, status constants.JobStatus, elapsed time.Duration)
	ClaimClassified(tenant string, errorType constants.ErrorType)
	AIReviewed(tenant string, outcome string)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) RunStarted(string)                                      {}
func (NopRecorder) RunFinished(string, constants.JobStatus, time.Duration) {}
func (NopRecorder) ClaimClassified(string, constants.ErrorType)            {}
func (NopRecorder) AIReviewed(string, string)                              {}
