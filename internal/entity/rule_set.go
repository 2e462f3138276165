package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Rule is one declarative check: claim.<Field> <Operator> <Value>.
type Rule struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty"`
	Field          string `json:"field" yaml:"field"`
	Operator       string `json:"operator,omitempty" yaml:"operator,omitempty"`
	Value          any    `json:"value" yaml:"value"`
	Severity       string `json:"severity,omitempty" yaml:"severity,omitempty"`
	ErrorType      string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
	Message        string `json:"message,omitempty" yaml:"message,omitempty"`
	Recommendation string `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// RuleCategory is a named, ordered list of rules.
type RuleCategory struct {
	Name  string
	Rules []Rule
}

// RuleGroup is an ordered category -> rules mapping. It encodes as a JSON/YAML
// object and keeps the document order of its keys on decode.
type RuleGroup []RuleCategory

// Len returns the number of rules across all categories.
func (g RuleGroup) Len() int {
	n := 0
	for _, c := range g {
		n += len(c.Rules)
	}
	return n
}

// Add appends rule to category name, creating the category on first use.
func (g *RuleGroup) Add(name string, rule Rule) {
	for i := range *g {
		if (*g)[i].Name == name {
			(*g)[i].Rules = append((*g)[i].Rules, rule)
			return
		}
	}
	*g = append(*g, RuleCategory{Name: name, Rules: []Rule{rule}})
}

func (g RuleGroup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		rules := c.Rules
		if rules == nil {
			rules = []Rule{}
		}
		v, err := json.Marshal(rules)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *RuleGroup) UnmarshalJSON(data []byte) error {
	*g = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("rule group: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("rule group: expected category name, got %v", keyTok)
		}
		var rules []Rule
		if err := dec.Decode(&rules); err != nil {
			return fmt.Errorf("rule group %q: %w", name, err)
		}
		*g = append(*g, RuleCategory{Name: name, Rules: rules})
	}
	_, err = dec.Token()
	return err
}

func (g *RuleGroup) UnmarshalYAML(node *yaml.Node) error {
	*g = nil
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("rule group: line %d: expected mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var rules []Rule
		if err := node.Content[i+1].Decode(&rules); err != nil {
			return fmt.Errorf("rule group %q: %w", name, err)
		}
		*g = append(*g, RuleCategory{Name: name, Rules: rules})
	}
	return nil
}

// RuleSet is a tenant-owned, versioned pair of technical and medical rule groups.
type RuleSet struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	TechnicalRules RuleGroup `json:"technical_rules"`
	MedicalRules   RuleGroup `json:"medical_rules"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}
