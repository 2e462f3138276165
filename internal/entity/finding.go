package entity

// Finding is one violated rule or AI-flagged issue.
type Finding struct {
	Category       string `json:"category,omitempty"`
	RuleID         string `json:"rule_id,omitempty"`
	Field          string `json:"field,omitempty"`
	Operator       string `json:"operator,omitempty"`
	ExpectedValue  any    `json:"value,omitempty"`
	ErrorType      string `json:"error_type"`
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation,omitempty"`
}
