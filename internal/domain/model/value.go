// Package model contains domain models passed between layers.
package model

import "strconv"

// Value is a schema-less, JSON-shaped tree used for event payloads and
// pattern values/evidence. Rule logic only reads loosely-typed subfields,
// so accessors return a zero value plus ok instead of failing.
type Value map[string]any

// String reads a string field.
func (v Value) String(key string) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v[key].(string)
	return s, ok
}

// Float reads a numeric field, accepting the encodings JSON decoding
// produces (float64, int, numeric string).
func (v Value) Float(key string) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch n := v[key].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int reads an integer field.
func (v Value) Int(key string) (int, bool) {
	f, ok := v.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Map reads a nested object field.
func (v Value) Map(key string) (Value, bool) {
	if v == nil {
		return nil, false
	}
	switch m := v[key].(type) {
	case Value:
		return m, true
	case map[string]any:
		return Value(m), true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy so stored values cannot be mutated by callers.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
