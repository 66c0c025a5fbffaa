// SPDX-License-Identifier: MIT

package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorFloat(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		key  string
		def  float64
		want float64
	}{
		{"native float", map[string]any{"v": 3.14}, "v", 0, 3.14},
		{"native int", map[string]any{"v": 42}, "v", 0, 42},
		{"int64", map[string]any{"v": int64(7)}, "v", 0, 7},
		{"numeric string", map[string]any{"v": "3.5"}, "v", 0, 3.5},
		{"integer string", map[string]any{"v": "42"}, "v", 0, 42},
		{"padded string", map[string]any{"v": " 2.5 "}, "v", 0, 2.5},
		{"json.Number", map[string]any{"v": json.Number("1.25")}, "v", 0, 1.25},
		{"missing key", map[string]any{}, "v", 9.5, 9.5},
		{"null value", map[string]any{"v": nil}, "v", 9.5, 9.5},
		{"garbage string", map[string]any{"v": "abc"}, "v", 1.5, 1.5},
		{"wrong type", map[string]any{"v": []any{1}}, "v", 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.in).Float(tt.key, tt.def)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExtractorInt(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		def  int
		want int
	}{
		{"native int", map[string]any{"v": 5}, 0, 5},
		{"float truncates", map[string]any{"v": 5.9}, 0, 5},
		{"string int", map[string]any{"v": "12"}, 0, 12},
		{"string float truncates", map[string]any{"v": "12.7"}, 0, 12},
		{"json.Number", map[string]any{"v": json.Number("8")}, 0, 8},
		{"missing", map[string]any{}, 3, 3},
		{"garbage", map[string]any{"v": "x"}, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in).Int("v", tt.def))
		})
	}
}

func TestExtractorBool(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		def  bool
		want bool
	}{
		{"native true", map[string]any{"v": true}, false, true},
		{"native false", map[string]any{"v": false}, true, false},
		{"string true", map[string]any{"v": "true"}, false, true},
		{"string one", map[string]any{"v": "1"}, false, true},
		{"string zero", map[string]any{"v": "0"}, true, false},
		{"string FALSE", map[string]any{"v": "FALSE"}, true, false},
		{"numeric one", map[string]any{"v": 1.0}, false, true},
		{"missing", map[string]any{}, true, true},
		{"garbage", map[string]any{"v": "maybe"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in).Bool("v", tt.def))
		})
	}
}

func TestExtractorString(t *testing.T) {
	e := New(map[string]any{"s": "hello", "n": 5, "nil": nil, "num": json.Number("3")})

	s, ok := e.String("s")
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = e.String("n")
	assert.False(t, ok, "numbers are not stringified")

	_, ok = e.String("nil")
	assert.False(t, ok)

	_, ok = e.String("absent")
	assert.False(t, ok)

	s, ok = e.String("num")
	require.True(t, ok)
	assert.Equal(t, "3", s)
}

func TestExtractorObject(t *testing.T) {
	e := New(map[string]any{
		"webgl": map[string]any{"renderer": "SwiftShader"},
		"flat":  "x",
	})

	nested, ok := e.Object("webgl")
	require.True(t, ok)
	r, ok := nested.String("renderer")
	require.True(t, ok)
	assert.Equal(t, "SwiftShader", r)

	_, ok = e.Object("flat")
	assert.False(t, ok)
	_, ok = e.Object("absent")
	assert.False(t, ok)
}

func TestExtractorNilMap(t *testing.T) {
	e := New(nil)
	assert.Equal(t, 1.0, e.Float("k", 1.0))
	assert.False(t, e.Has("k"))
}

func TestExtractorDecodedJSON(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"velocity":"42","active":"true","count":7}`), &m))
	e := New(m)
	assert.InDelta(t, 42.0, e.Float("velocity", 0), 1e-9)
	assert.True(t, e.Bool("active", false))
	assert.Equal(t, 7, e.Int("count", 0))
}
