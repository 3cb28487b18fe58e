package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Result holds the outcome of a plan run.
type Result struct {
	Plan     string `json:"plan" toml:"plan"`
	RunID    string `json:"run_id" toml:"run_id"`
	Terminal string `json:"terminal" toml:"terminal"`
	// Value is []float64 for collect, int for count, bool for is_empty and
	// float64 otherwise. It is nil when min, max, first or last found no
	// element.
	Value any `json:"value" toml:"value,omitempty"`
	// Elements is the number of values the terminal produced.
	Elements int           `json:"elements" toml:"elements"`
	Duration time.Duration `json:"duration" toml:"duration"`
}

// String formats the result as a single line, for example
// "evens-times-ten collect [20 40]".
func (r *Result) String() string {
	return fmt.Sprintf("%s %s %s", r.Plan, r.Terminal, formatValue(r.Value))
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "none"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []float64:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
