package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Render writes a value the way rule explanations show it: None for absent
// values, True/False for booleans, ['a', 'b'] for lists.
func Render(v any) string {
	return render(v, false)
}

func render(v any, quoted bool) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		if quoted {
			return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
		}
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case decimal.Decimal:
		return x.StringFixed(2)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case json.Number:
		return x.String()
	case []string:
		return render(normalize(x), quoted)
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = render(item, true)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
