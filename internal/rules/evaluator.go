// Package rules applies declarative rule groups to claims.
package rules

import (
	"fmt"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Rule defaults applied when a rule leaves the attribute empty.
const (
	DefaultOperator  = OpEqual
	DefaultErrorType = string(constants.TechnicalError)
	DefaultMessage   = "Rule violation"
)

// Evaluate applies every rule in group to claim and returns one finding per
// violated rule, in category order then rule order.
func Evaluate(claim *entity.Claim, group entity.RuleGroup) []entity.Finding {
	var findings []entity.Finding
	for _, category := range group {
		for _, rule := range category.Rules {
			if f, violated := evaluateRule(claim, category.Name, rule); violated {
				findings = append(findings, f)
			}
		}
	}
	return findings
}

// EvaluateRuleSet evaluates the technical and medical groups as separate inputs
// and returns technical findings followed by medical findings.
func EvaluateRuleSet(claim *entity.Claim, rs *entity.RuleSet) []entity.Finding {
	if rs == nil {
		return nil
	}
	findings := Evaluate(claim, rs.TechnicalRules)
	return append(findings, Evaluate(claim, rs.MedicalRules)...)
}

func evaluateRule(claim *entity.Claim, category string, rule entity.Rule) (entity.Finding, bool) {
	op := rule.Operator
	if op == "" {
		op = DefaultOperator
	}
	lhs := FieldValue(claim, rule.Field)
	if Apply(op, lhs, rule.Value) == Satisfied {
		return entity.Finding{}, false
	}

	errorType := rule.ErrorType
	if errorType == "" {
		errorType = DefaultErrorType
	}
	message := rule.Message
	if message == "" {
		message = DefaultMessage
	}
	recommendation := rule.Recommendation
	if recommendation == "" {
		recommendation = fmt.Sprintf("Review %s and correct per policy.", rule.Field)
	}
	return entity.Finding{
		Category:       category,
		RuleID:         rule.ID,
		Field:          rule.Field,
		Operator:       op,
		ExpectedValue:  rule.Value,
		ErrorType:      errorType,
		Explanation:    fmt.Sprintf("%s: expected %s %s %s, found %s", message, rule.Field, op, Render(rule.Value), Render(lhs)),
		Recommendation: recommendation,
	}, true
}
