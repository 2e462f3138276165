package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleDocumentSchema accepts {"<category>": [rule, ...], ...} with string-typed rule attributes.
const ruleDocumentSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": {
      "type": "object",
      "properties": {
        "id":             {"type": "string"},
        "type":           {"type": "string"},
        "field":          {"type": "string"},
        "operator":       {"type": "string"},
        "severity":       {"type": "string"},
        "message":        {"type": "string"},
        "error_type":     {"type": "string"},
        "recommendation": {"type": "string"}
      }
    }
  }
}`

var ruleSchema = jsonschema.MustCompileString("rules.json", ruleDocumentSchema)

// checkRuleDocument validates raw JSON against the rule document shape.
func checkRuleDocument(raw []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := ruleSchema.Validate(doc); err != nil {
		return fmt.Errorf("rule document: %w", err)
	}
	return nil
}
