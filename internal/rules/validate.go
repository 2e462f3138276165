package rules

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Issue is one problem found in a rule group.
type Issue struct {
	Group    string
	Category string
	RuleID   string
	Message  string
}

// ValidationError aggregates rule-set validation issues.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "rule set validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s.%s[%s]: %s", issue.Group, issue.Category, issue.RuleID, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// ValidateRuleSet rejects rules that reference unknown claim fields, use an
// unsupported operator or give a membership operator a non-collection value.
func ValidateRuleSet(rs *entity.RuleSet) error {
	if rs == nil {
		return &ValidationError{Issues: []Issue{{Message: "rule set is required"}}}
	}
	var issues []Issue
	issues = append(issues, validateGroup("technical_rules", rs.TechnicalRules)...)
	issues = append(issues, validateGroup("medical_rules", rs.MedicalRules)...)
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateGroup(group string, g entity.RuleGroup) []Issue {
	var issues []Issue
	for _, category := range g {
		for i, rule := range category.Rules {
			id := rule.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			add := func(msg string) {
				issues = append(issues, Issue{Group: group, Category: category.Name, RuleID: id, Message: msg})
			}
			switch {
			case rule.Field == "":
				add("field is required")
			case !HasField(rule.Field):
				add(fmt.Sprintf("unknown field %q", rule.Field))
			}
			op := rule.Operator
			if op == "" {
				op = DefaultOperator
			}
			if !IsOperator(op) {
				add(fmt.Sprintf("unsupported operator %q", rule.Operator))
				continue
			}
			if op == OpIn || op == OpNotIn {
				switch normalize(rule.Value).(type) {
				case []any, string:
				default:
					add(fmt.Sprintf("operator %q needs a list or string value", op))
				}
			}
		}
	}
	return issues
}
