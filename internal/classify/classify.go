// Package classify derives a claim's error classification from its findings.
package classify

import (
	"strings"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Result is the classification applied to a claim after evaluation.
type Result struct {
	ErrorType      constants.ErrorType
	Status         constants.ClaimStatus
	Explanation    string
	Recommendation string
	Technical      []entity.Finding
	Medical        []entity.Finding
}

// IsValid reports whether the claim passed both static and AI review.
func (r Result) IsValid() bool {
	return r.Status == constants.ClaimStatusValidated
}

// Score is 1 for a valid claim, 0 otherwise.
func (r Result) Score() float64 {
	if r.IsValid() {
		return 1
	}
	return 0
}

// Classify derives the error type from static findings only, while status and
// text cover static findings followed by AI findings.
func Classify(static, ai []entity.Finding) Result {
	var res Result
	for _, f := range static {
		switch {
		case constants.IsTechnical(f.ErrorType):
			res.Technical = append(res.Technical, f)
		case constants.IsMedical(f.ErrorType):
			res.Medical = append(res.Medical, f)
		}
	}

	switch {
	case len(res.Technical) > 0 && len(res.Medical) > 0:
		res.ErrorType = constants.BothErrors
	case len(res.Technical) > 0:
		res.ErrorType = constants.TechnicalError
	case len(res.Medical) > 0:
		res.ErrorType = constants.MedicalError
	default:
		res.ErrorType = constants.NoError
	}

	all := make([]entity.Finding, 0, len(static)+len(ai))
	all = append(all, static...)
	all = append(all, ai...)

	res.Status = constants.ClaimStatusNotValidated
	if len(all) == 0 {
		res.Status = constants.ClaimStatusValidated
	}

	explanations := make([]string, 0, len(all))
	var recommendations []string
	for _, f := range all {
		explanations = append(explanations, "- "+f.Explanation)
		if f.Recommendation != "" {
			recommendations = append(recommendations, "- "+f.Recommendation)
		}
	}
	res.Explanation = strings.Join(explanations, "\n")
	res.Recommendation = strings.Join(recommendations, "\n")
	return res
}

// Apply copies the classification onto claim.
func (r Result) Apply(claim *entity.Claim) {
	claim.Status = r.Status
	claim.ErrorType = r.ErrorType
	claim.ErrorExplanation = r.Explanation
	claim.RecommendedAction = r.Recommendation
}
