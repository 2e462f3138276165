package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Column defaults for tabular rule files.
const (
	defaultCategory  = "general"
	defaultRuleType  = "threshold"
	defaultField     = "paid_amount_aed"
	defaultOperator  = ">"
	defaultSeverity  = "medium"
	defaultMessage   = "Rule violation"
	defaultErrorType = "Technical error"
)

// LoadRulesFile reads a rule group from path, picking the decoder by extension.
func LoadRulesFile(path string) (entity.RuleGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadRules(filepath.Base(path), f)
}

// LoadRules decodes a category -> rules mapping. name only selects the format.
func LoadRules(name string, r io.Reader) (entity.RuleGroup, error) {
	format := constants.MapExtToFormat(constants.RuleFileExtensions, filepath.Ext(name))
	switch format {
	case constants.FormatYAML:
		var g entity.RuleGroup
		if err := yaml.NewDecoder(r).Decode(&g); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml rules %s: %w", name, err)
		}
		return g, nil
	case constants.FormatJSON:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read rules %s: %w", name, err)
		}
		var g entity.RuleGroup
		if len(bytes.TrimSpace(raw)) == 0 {
			return g, nil
		}
		if err := checkRuleDocument(raw); err != nil {
			return nil, fmt.Errorf("decode json rules %s: %w", name, err)
		}
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("decode json rules %s: %w", name, err)
		}
		return g, nil
	case constants.FormatCSV, constants.FormatXLSX:
		t, err := readTable(format, r)
		if err != nil {
			return nil, fmt.Errorf("rules %s: %w", name, err)
		}
		return rulesFromTable(t), nil
	default:
		return nil, fmt.Errorf("rules %s: %w", name, ErrUnsupportedFormat)
	}
}

// rulesFromTable builds one rule per row, grouped by the category column.
func rulesFromTable(t *table) entity.RuleGroup {
	var g entity.RuleGroup
	for i := range t.rows {
		get := func(col, def string) string {
			if v := t.cell(i, col); v != "" {
				return v
			}
			return def
		}
		rule := entity.Rule{
			ID:             get("id", "rule_"+strconv.Itoa(i)),
			Type:           get("type", defaultRuleType),
			Field:          get("field", defaultField),
			Operator:       get("operator", defaultOperator),
			Value:          parseCellValue(t.cell(i, "value")),
			Severity:       get("severity", defaultSeverity),
			Message:        get("message", defaultMessage),
			ErrorType:      get("error_type", defaultErrorType),
			Recommendation: t.cell(i, "recommendation"),
		}
		g.Add(get("category", defaultCategory), rule)
	}
	return g
}

// parseCellValue turns a spreadsheet cell into a rule value: numbers become
// numbers, JSON arrays become lists, an empty cell becomes 0.
func parseCellValue(s string) any {
	if s == "" {
		return int64(0)
	}
	if strings.HasPrefix(s, "[") {
		var list []any
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
