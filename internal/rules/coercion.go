// internal/rules/coercion.go
package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/adjrules/internal/types"
)

/*
 * Value normalization at the wire boundary.
 *
 * The WFM wire format and hand-edited export files carry numbers and
 * booleans as any of: JSON numbers, JSON booleans, or strings. These helpers
 * convert them to the typed model and back.
 *
 * Two modes:
 *   - Safe (ParseBoolean, ParseFloat): total functions, never fail, fall
 *     back to false / the caller's default. Used by extraction and export.
 *   - Strict (ParseFloatStrict): returns ErrCoercionFailed. Used by the
 *     update path, which must not silently absorb a bad edit.
 *
 * Booleans are never coerced to numbers ("true" vs 1 ambiguity).
 */

// ParseBoolean converts value to bool.
// bool passes through; a string is true iff it trims and folds to "true";
// everything else, including nil, is false.
func ParseBoolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// CleanValue drops placeholder values.
// Returns ok=false for nil, empty/whitespace strings and "n/a" in any case;
// otherwise returns value unchanged.
func CleanValue(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		t := strings.TrimSpace(v)
		if t == "" || strings.EqualFold(t, types.NotApplicable) {
			return nil, false
		}
		return v, true
	default:
		return v, true
	}
}

// CleanString is CleanValue for string cells.
func CleanString(s string) (string, bool) {
	if _, ok := CleanValue(s); !ok {
		return "", false
	}
	return s, true
}

// ParseFloat converts value to float64, returning def on any failure.
func ParseFloat(value any, def float64) float64 {
	f, err := ParseFloatStrict(value)
	if err != nil {
		return def
	}
	return f
}

// ParseFloatStrict converts value to float64.
// Accepts float64, ints, json.Number and numeric strings (trimmed).
// Returns ErrCoercionFailed for booleans, blanks and non-numeric text.
func ParseFloatStrict(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, types.ErrCoercionFailed
		}
		return f, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, types.ErrCoercionFailed
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, types.ErrCoercionFailed
		}
		return f, nil
	default:
		return 0, types.ErrCoercionFailed
	}
}

// AsString renders a scalar wire value as text.
// nil renders as "", objects and arrays via fmt.
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return FormatFloat(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatFloat renders f with the shortest exact representation ("7.5", "5").
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatBool renders b as "true"/"false".
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
