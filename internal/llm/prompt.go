package llm

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// SystemPrompt is the fixed instruction sent with every review.
const SystemPrompt = "You are a medical claims adjudication assistant. Evaluate each claim " +
	"against provided medical and technical rules. Return JSON list of findings " +
	"with fields: error_type (Medical error/Technical error), explanation (bullet), recommendation."

const answerInstruction = "Return compact JSON array with objects {error_type, explanation, recommendation}. " +
	`If the response must be an object, wrap the array as {"findings": [...]}.`

// RuleContext is the serialized rule set handed to the model.
type RuleContext struct {
	Technical entity.RuleGroup `json:"technical"`
	Medical   entity.RuleGroup `json:"medical"`
}

// NewRuleContext builds the rule context for rs; nil rs yields empty groups.
func NewRuleContext(rs *entity.RuleSet) RuleContext {
	if rs == nil {
		return RuleContext{}
	}
	return RuleContext{Technical: rs.TechnicalRules, Medical: rs.MedicalRules}
}

// ClaimAttributes returns the claim data the model reviews. Pipeline-owned
// fields such as status and error_type are never sent.
func ClaimAttributes(claim *entity.Claim) map[string]any {
	return map[string]any{
		"claim_id":        claim.ClaimID,
		"diagnosis_codes": claim.DiagnosisCodes,
		"service_code":    optional(claim.ServiceCode),
		"paid_amount_aed": claim.PaidAmountAED.InexactFloat64(),
		"approval_number": optional(claim.ApprovalNumber),
	}
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// BuildUserPrompt renders the rule context and claim attributes as the user message.
func BuildUserPrompt(rc RuleContext, claim *entity.Claim) string {
	var b strings.Builder
	b.WriteString("Rules:")
	b.WriteString(mustJSON(rc))
	b.WriteString("\nClaim:")
	b.WriteString(mustJSON(ClaimAttributes(claim)))
	b.WriteString("\n")
	b.WriteString(answerInstruction)
	return b.String()
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
