package rules

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Outcome is the typed result of applying an operator.
type Outcome int

const (
	Satisfied Outcome = iota
	Violated
	// Mismatch means the operands could not be compared; it counts as a violation.
	Mismatch
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case Violated:
		return "violated"
	default:
		return "mismatch"
	}
}

const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpIn           = "in"
	OpNotIn        = "not in"
)

var operators = map[string]func(lhs, rhs any) Outcome{
	OpEqual:        func(l, r any) Outcome { return boolOutcome(equal(l, r)) },
	OpNotEqual:     func(l, r any) Outcome { return boolOutcome(!equal(l, r)) },
	OpGreater:      ordered(func(c int) bool { return c > 0 }),
	OpGreaterEqual: ordered(func(c int) bool { return c >= 0 }),
	OpLess:         ordered(func(c int) bool { return c < 0 }),
	OpLessEqual:    ordered(func(c int) bool { return c <= 0 }),
	OpIn:           contains(false),
	OpNotIn:        contains(true),
}

// IsOperator reports whether op is supported.
func IsOperator(op string) bool {
	_, ok := operators[op]
	return ok
}

// Apply evaluates lhs op rhs. Unknown operators are violations.
func Apply(op string, lhs, rhs any) Outcome {
	fn, ok := operators[op]
	if !ok {
		return Violated
	}
	return fn(lhs, rhs)
}

func boolOutcome(ok bool) Outcome {
	if ok {
		return Satisfied
	}
	return Violated
}

// ordered builds an ordering operator. A nil lhs counts as zero.
func ordered(accept func(cmp int) bool) func(lhs, rhs any) Outcome {
	return func(lhs, rhs any) Outcome {
		if lhs == nil {
			lhs = decimal.Zero
		}
		c, ok := compare(lhs, rhs)
		if !ok {
			return Mismatch
		}
		return boolOutcome(accept(c))
	}
}

// contains builds in / not in over lists and substrings.
func contains(negate bool) func(lhs, rhs any) Outcome {
	return func(lhs, rhs any) Outcome {
		var found bool
		switch r := normalize(rhs).(type) {
		case []any:
			for _, item := range r {
				if equal(lhs, item) {
					found = true
					break
				}
			}
		case string:
			s, ok := normalize(lhs).(string)
			if !ok {
				return Mismatch
			}
			found = strings.Contains(r, s)
		default:
			return Mismatch
		}
		return boolOutcome(found != negate)
	}
}

func equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compare orders numbers against numbers and strings against strings.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		if !ok {
			return 0, false
		}
		return x.Cmp(y), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	default:
		return 0, false
	}
}

// normalize folds numeric kinds into decimal.Decimal and string slices into []any.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case float64:
		return decimal.NewFromFloat(x)
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return x.String()
		}
		return d
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return *x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return v
	}
}
