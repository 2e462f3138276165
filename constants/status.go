package constants

// JobStatus is the canonical status for rows in job_runs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending  JobStatus = "Pending"  // queued, not picked up yet
	JobStatusRunning  JobStatus = "Running"  // in progress
	JobStatusFinished JobStatus = "Finished" // terminal success
	JobStatusFailed   JobStatus = "Failed"   // terminal failure
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

// JobTypeValidation is the job_type recorded for pipeline runs.
const JobTypeValidation = "validation"

// ClaimStatus is the lifecycle status stored on a claim row.
type ClaimStatus string

const (
	ClaimStatusUploaded     ClaimStatus = "Uploaded"
	ClaimStatusValidated    ClaimStatus = "Validated"
	ClaimStatusNotValidated ClaimStatus = "Not validated"
)
