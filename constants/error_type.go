package constants

import "strings"

// ErrorType is the classification stored on a claim and used as metric bucket key.
type ErrorType string

const (
	NoError        ErrorType = "No error"
	TechnicalError ErrorType = "Technical error"
	MedicalError   ErrorType = "Medical error"
	BothErrors     ErrorType = "both"
)

// KnownErrorTypes lists the buckets every metric snapshot starts with, in display order.
var KnownErrorTypes = []ErrorType{NoError, TechnicalError, MedicalError, BothErrors}

// IsTechnical reports whether a finding's error_type label belongs to the technical bucket.
func IsTechnical(label string) bool {
	return strings.HasPrefix(strings.ToLower(label), "tech")
}

// IsMedical reports whether a finding's error_type label belongs to the medical bucket.
func IsMedical(label string) bool {
	return strings.HasPrefix(strings.ToLower(label), "med")
}

// NormalizeErrorType maps an absent label to NoError and keeps anything else verbatim.
func NormalizeErrorType(label string) ErrorType {
	if label == "" {
		return NoError
	}
	return ErrorType(label)
}
