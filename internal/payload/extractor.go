// SPDX-License-Identifier: MIT

// Package payload provides tolerant typed reads over the heterogeneous
// JSON payloads carried by signals. All type coercion for rule evaluation
// lives here; rules never convert payload values themselves.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Extractor wraps a decoded JSON object and offers typed accessors that
// fall back to defaults on missing keys, nulls and unparseable values.
type Extractor struct {
	values map[string]any
}

// New returns an extractor over the given payload map. A nil map is valid
// and behaves as an empty payload.
func New(values map[string]any) Extractor {
	return Extractor{values: values}
}

// String returns the value for key as a string. Non-string scalars are
// not stringified; only true string values are returned.
func (e Extractor) String(key string) (string, bool) {
	v, ok := e.values[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

// Float returns the value for key as a float64, or def when the key is
// missing, null, or not convertible. Numeric strings are accepted.
func (e Extractor) Float(key string, def float64) float64 {
	v, ok := e.values[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return def
}

// Int returns the value for key as an int, or def when not convertible.
// Floating-point values are truncated toward zero.
func (e Extractor) Int(key string, def int) int {
	v, ok := e.values[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
	}
	return def
}

// Bool returns the value for key as a bool, or def when not convertible.
// The strings "true"/"false" and "1"/"0" are accepted.
func (e Extractor) Bool(key string, def bool) bool {
	v, ok := e.values[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	case float64:
		return b != 0
	case int:
		return b != 0
	case json.Number:
		if i, err := b.Int64(); err == nil {
			return i != 0
		}
	}
	return def
}

// Has reports whether key is present with a non-null value.
func (e Extractor) Has(key string) bool {
	v, ok := e.values[key]
	return ok && v != nil
}

// Object returns the value for key as a nested object, if it is one.
func (e Extractor) Object(key string) (Extractor, bool) {
	v, ok := e.values[key]
	if !ok || v == nil {
		return Extractor{}, false
	}
	if m, ok := v.(map[string]any); ok {
		return New(m), true
	}
	return Extractor{}, false
}
