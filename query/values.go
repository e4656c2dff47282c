package query

import (
	"fmt"
	"sort"
)

// Values is an insertion-ordered mapping from placeholder name to Value.
// A nil *Values is an empty mapping.
type Values struct {
	keys []string
	m    map[string]Value
}

// NewValues returns an empty mapping.
func NewValues() *Values {
	return &Values{m: map[string]Value{}}
}

// FromMap converts m with Of, ordering keys lexically.
func FromMap(m map[string]any) (*Values, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vs := NewValues()
	for _, k := range keys {
		if err := vs.Put(k, m[k]); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

// Set stores v under key. A key keeps the position of its first Set.
func (vs *Values) Set(key string, v Value) *Values {
	if vs.m == nil {
		vs.m = map[string]Value{}
	}
	if _, ok := vs.m[key]; !ok {
		vs.keys = append(vs.keys, key)
	}
	vs.m[key] = v
	return vs
}

// Put converts x with Of and stores it under key.
func (vs *Values) Put(key string, x any) error {
	v, err := Of(x)
	if err != nil {
		return fmt.Errorf("value %q: %w", key, err)
	}
	vs.Set(key, v)
	return nil
}

// Get returns the value stored under key.
func (vs *Values) Get(key string) (Value, bool) {
	if vs == nil {
		return Value{}, false
	}
	v, ok := vs.m[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (vs *Values) Keys() []string {
	if vs == nil {
		return nil
	}
	return append([]string(nil), vs.keys...)
}

// Len returns the number of keys.
func (vs *Values) Len() int {
	if vs == nil {
		return 0
	}
	return len(vs.keys)
}
