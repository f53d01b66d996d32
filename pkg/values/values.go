// Package values converts raw form submissions into typed configuration
// values according to blueprint selectors.
package values

import (
	"math"
	"strconv"
	"strings"

	"github.com/adconfigurator/api/pkg/blueprint"
	"github.com/adconfigurator/api/pkg/selector"
)

// StripQuotes removes one leading and one trailing quote character (single
// or double) and surrounding whitespace. Form encoders upstream sometimes
// wrap values in quotes.
func StripQuotes(s string) string {
	if strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`) {
		s = s[1:]
	}
	if strings.HasSuffix(s, `"`) || strings.HasSuffix(s, `'`) {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

// TypeValues coerces every raw value to the type declared by the matching
// input's selector. Keys without a definition or selector keep the cleaned
// string.
func TypeValues(flat map[string]*blueprint.Input, raw map[string]interface{}) map[string]interface{} {
	typed := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		value = clean(value)

		input, ok := flat[key]
		if !ok || input == nil || input.Selector == nil {
			typed[key] = value
			continue
		}

		switch input.Selector.Kind {
		case selector.KindNumber:
			typed[key] = toNumber(value)
		case selector.KindBoolean:
			typed[key] = toBool(value)
		default:
			typed[key] = value
		}
	}
	return typed
}

// TypeValuesLoose cleans raw values without a schema
func TypeValuesLoose(raw map[string]interface{}) map[string]interface{} {
	typed := make(map[string]interface{}, len(raw))
	for key, value := range raw {
		typed[key] = clean(value)
	}
	return typed
}

func clean(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return StripQuotes(s)
	}
	return value
}

// toNumber parses decimal input. Blank input is 0, 0x/0o/0b integer literals
// are accepted and anything else non-numeric becomes NaN.
// Whole numbers are returned as int so they serialize without a fraction.
func toNumber(value interface{}) interface{} {
	var f float64
	switch v := value.(type) {
	case string:
		parsed, ok := parseNumber(v)
		if !ok {
			return math.NaN()
		}
		f = parsed
	case float64:
		f = v
	case int:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}

	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int(f)
	}
	return f
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if hasIntegerPrefix(s) {
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return float64(n), true
		}
	}
	return 0, false
}

func hasIntegerPrefix(s string) bool {
	if len(s) < 3 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}

func toBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "on"
	default:
		return false
	}
}

// JSONSafe replaces values encoding/json cannot represent (NaN, ±Inf) with nil
func JSONSafe(config map[string]interface{}) map[string]interface{} {
	safe := make(map[string]interface{}, len(config))
	for key, value := range config {
		if f, ok := value.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			safe[key] = nil
			continue
		}
		safe[key] = value
	}
	return safe
}
