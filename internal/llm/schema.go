package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// ErrUnexpectedShape is returned when the payload is neither a findings array
// nor an object with a "findings" array.
var ErrUnexpectedShape = errors.New("unexpected findings payload shape")

// FindingsSchema describes the findings array the model must return.
func FindingsSchema() map[string]any {
	text := map[string]any{"type": []any{"string", "null"}}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"error_type":     text,
				"explanation":    text,
				"recommendation": text,
			},
		},
	}
}

var findingsSchema = mustCompile(FindingsSchema())

func mustCompile(schemaMap map[string]any) *jsonschema.Schema {
	s, err := compileSchema(schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("findings.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("findings.json")
}

// ParseFindings accepts a bare JSON array of findings or an object holding
// that array under "findings". Anything else is an error.
func ParseFindings(content string) ([]entity.Finding, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrUnexpectedShape
	}

	var doc any
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	var items any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		f, ok := v["findings"]
		if !ok {
			return nil, ErrUnexpectedShape
		}
		if _, isList := f.([]any); !isList {
			return nil, ErrUnexpectedShape
		}
		items = f
	default:
		return nil, ErrUnexpectedShape
	}

	if err := findingsSchema.Validate(items); err != nil {
		return nil, fmt.Errorf("findings do not match schema: %w", err)
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("re-encode findings: %w", err)
	}
	var out []entity.Finding
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	return out, nil
}
