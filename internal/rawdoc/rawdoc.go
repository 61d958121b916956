// Package rawdoc has helpers for walking decoded upstream JSON, which
// arrives as untyped maps and lists with inconsistent field types (numbers
// that are sometimes strings, ids that are sometimes numbers).
package rawdoc

import "strconv"

// Map asserts v as a JSON object.
func Map(v interface{}) (map[string]interface{}, bool) {
	m, ok := v.(map[string]interface{})
	return m, ok
}

// List asserts v as a JSON array.
func List(v interface{}) ([]interface{}, bool) {
	l, ok := v.([]interface{})
	return l, ok
}

// Str returns v as a string when it already is one, "" otherwise.
func Str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// NumStr renders v as its string form: strings pass through, numbers are
// formatted without a trailing ".0", anything else becomes "".
func NumStr(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// Float parses a float from v.
func Float(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	case int:
		return float64(val)
	default:
		return 0.0
	}
}

// Int64 parses an int64 from v.
func Int64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case string:
		i, _ := strconv.ParseInt(val, 10, 64)
		return i
	case int:
		return int64(val)
	case int64:
		return val
	default:
		return 0
	}
}

// Bool parses a bool from v. The feed occasionally sends "true"/"false".
func Bool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	default:
		return false
	}
}
