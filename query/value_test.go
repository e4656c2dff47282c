package query

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

// TestOf checks conversion of Go values to the tagged variant.
func TestOf(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	n := 5
	var nilPtr *int

	tests := []struct {
		name string
		in   any
		kind Kind
		want any
	}{
		{"nil", nil, KindNull, nil},
		{"bool", true, KindBool, true},
		{"int", 42, KindInt, int64(42)},
		{"uint32", uint32(7), KindInt, int64(7)},
		{"float", 1.5, KindFloat, 1.5},
		{"string", "x", KindString, "x"},
		{"named string", color("red"), KindString, "red"},
		{"bytes", []byte("ab"), KindBytes, []byte("ab")},
		{"time", ts, KindTime, ts},
		{"pointer", &n, KindInt, int64(5)},
		{"nil pointer", nilPtr, KindNull, nil},
		{"slice", []string{"a", "b"}, KindString, `["a","b"]`},
		{"map", map[string]int{"a": 1}, KindString, `{"a":1}`},
		{"value", Int(3), KindInt, int64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Of(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.Any())
		})
	}
}

// TestOfErrors verifies unsupported and overflowing inputs.
func TestOfErrors(t *testing.T) {
	_, err := Of(uint64(math.MaxUint64))
	assert.Error(t, err)

	_, err = Of(make(chan int))
	assert.Error(t, err)
}

// TestValuesOrder verifies insertion order and nil handling.
func TestValuesOrder(t *testing.T) {
	vs := NewValues()
	vs.Set("b", Int(1)).Set("a", Int(2)).Set("b", Int(3))
	assert.Equal(t, []string{"b", "a"}, vs.Keys())
	assert.Equal(t, 2, vs.Len())

	v, ok := vs.Get("b")
	require.True(t, ok)
	assert.True(t, v.Equal(Int(3)))

	var empty *Values
	_, ok = empty.Get("a")
	assert.False(t, ok)
	assert.Zero(t, empty.Len())

	fm, err := FromMap(map[string]any{"z": 1, "m": 2, "a": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "m", "z"}, fm.Keys())
}

// TestValueString checks the display form used by dry runs.
func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, `"x"`, Text("x").String())
	assert.Equal(t, "12", Int(12).String())
	assert.Equal(t, "x'0a'", Blob([]byte{10}).String())
	assert.True(t, Blob(nil).IsNull())
}
