package entity

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func categoryNames(g RuleGroup) []string {
	names := make([]string, 0, len(g))
	for _, c := range g {
		names = append(names, c.Name)
	}
	return names
}

func TestRuleGroupJSONKeepsOrder(t *testing.T) {
	doc := `{"zeta":[{"id":"z1","field":"claim_id","value":"a"}],"alpha":[{"id":"a1","field":"paid_amount_aed","operator":"<=","value":10000}]}`
	var g RuleGroup
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := categoryNames(g); len(got) != 2 || got[0] != "zeta" || got[1] != "alpha" {
		t.Fatalf("order: got %v", got)
	}
	if v, ok := g[1].Rules[0].Value.(float64); !ok || v != 10000 {
		t.Fatalf("value: got %#v", g[1].Rules[0].Value)
	}

	out, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again RuleGroup
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if got := categoryNames(again); got[0] != "zeta" || got[1] != "alpha" {
		t.Fatalf("order after round trip: got %v", got)
	}
}

func TestRuleGroupJSONNullAndEmpty(t *testing.T) {
	var g RuleGroup
	if err := json.Unmarshal([]byte("null"), &g); err != nil || g != nil {
		t.Fatalf("null: got %v, %v", g, err)
	}
	out, err := json.Marshal(RuleGroup(nil))
	if err != nil || string(out) != "{}" {
		t.Fatalf("marshal nil: got %s, %v", out, err)
	}
	if err := json.Unmarshal([]byte(`["x"]`), &g); err == nil {
		t.Fatalf("expected error for array document")
	}
}

func TestRuleGroupYAMLKeepsOrder(t *testing.T) {
	doc := `
service_rules:
  - id: svc
    field: service_code
    operator: in
    value: ["99213", "MRI"]
    error_type: Medical error
amount_rules:
  - id: paid
    field: paid_amount_aed
    operator: "<="
    value: 10000
`
	var g RuleGroup
	if err := yaml.Unmarshal([]byte(doc), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := categoryNames(g); len(got) != 2 || got[0] != "service_rules" || got[1] != "amount_rules" {
		t.Fatalf("order: got %v", got)
	}
	if list, ok := g[0].Rules[0].Value.([]any); !ok || len(list) != 2 {
		t.Fatalf("list value: got %#v", g[0].Rules[0].Value)
	}
	if g.Len() != 2 {
		t.Fatalf("Len: got %d", g.Len())
	}
}

func TestRuleGroupAdd(t *testing.T) {
	var g RuleGroup
	g.Add("a", Rule{ID: "1"})
	g.Add("b", Rule{ID: "2"})
	g.Add("a", Rule{ID: "3"})
	if len(g) != 2 || len(g[0].Rules) != 2 || g[0].Rules[1].ID != "3" {
		t.Fatalf("unexpected group: %+v", g)
	}
}
