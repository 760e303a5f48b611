package kernel

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Parameters is an immutable set of named generation parameters
// (prompt, width, seed, ...). Every method that "changes" it returns a copy.
//
// Values keep the type they were built with; after a JSON round trip all
// numbers are float64. Use Number to read numeric values regardless of origin.
type Parameters struct {
	values map[string]any
}

// NewParameters copies values into a new Parameters. A nil map yields an empty set.
func NewParameters(values map[string]any) Parameters {
	if len(values) == 0 {
		return Parameters{}
	}
	return Parameters{values: maps.Clone(values)}
}

// ParametersFromJSON decodes a JSON object. Empty input and "null" yield an empty set.
func ParametersFromJSON(data []byte) (Parameters, error) {
	if len(data) == 0 || string(data) == "null" {
		return Parameters{}, nil
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return Parameters{}, fmt.Errorf("decode parameters: %w", err)
	}
	return Parameters{values: values}, nil
}

// Get returns the raw value stored under key.
func (p Parameters) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (p Parameters) String(key string) (string, bool) {
	s, ok := p.values[key].(string)
	return s, ok
}

// Number returns the value under key as float64 when it is numeric.
func (p Parameters) Number(key string) (float64, bool) {
	v, ok := p.values[key]
	if !ok {
		return 0, false
	}
	return ToNumber(v)
}

// Has reports whether key is present.
func (p Parameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// With returns a copy holding value under key.
func (p Parameters) With(key string, value any) Parameters {
	values := maps.Clone(p.values)
	if values == nil {
		values = make(map[string]any, 1)
	}
	values[key] = value
	return Parameters{values: values}
}

// Without returns a copy lacking key.
func (p Parameters) Without(key string) Parameters {
	if !p.Has(key) {
		return p
	}
	values := maps.Clone(p.values)
	delete(values, key)
	return Parameters{values: values}
}

// Merge returns a copy of p overlaid with overrides. Keys in overrides win.
func (p Parameters) Merge(overrides Parameters) Parameters {
	values := make(map[string]any, len(p.values)+len(overrides.values))
	maps.Copy(values, p.values)
	maps.Copy(values, overrides.values)
	return Parameters{values: values}
}

// Keys returns the parameter names in lexical order.
func (p Parameters) Keys() []string {
	return slices.Sorted(maps.Keys(p.values))
}

func (p Parameters) Len() int {
	return len(p.values)
}

// Map returns a copy of the underlying values, never nil.
func (p Parameters) Map() map[string]any {
	if p.values == nil {
		return map[string]any{}
	}
	return maps.Clone(p.values)
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

func (p *Parameters) UnmarshalJSON(data []byte) error {
	decoded, err := ParametersFromJSON(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// ToNumber converts the numeric types produced by JSON, YAML and Go literals to float64.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
