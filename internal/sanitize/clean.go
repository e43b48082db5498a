// Package sanitize strips null values from generic document trees before they
// are written to the document store.
package sanitize

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Clean returns a copy of v without nil values. Nil entries are removed from
// maps and slices, maps left empty after cleaning become nil and are removed
// from their parent. Empty slices are kept. Scalars are returned unchanged.
func Clean(v any) any {
	if v == nil {
		return nil
	}

	switch t := v.(type) {
	case map[string]any:
		return cleanMap(t)
	case []any:
		return cleanSlice(t)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() || rv.Type().Key().Kind() != reflect.String {
			return nilOr(rv, v)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return cleanMap(m)
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = rv.Index(i).Interface()
		}
		return cleanSlice(s)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}

	return v
}

// Fields cleans a string keyed map and never returns nil.
func Fields(m map[string]any) map[string]any {
	if cleaned, ok := Clean(m).(map[string]any); ok {
		return cleaned
	}
	return map[string]any{}
}

// ToFields converts a struct into a cleaned field map using its JSON encoding.
func ToFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}

	return Fields(m), nil
}

func cleanMap(m map[string]any) any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		if c := Clean(val); c != nil {
			out[k] = c
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanSlice(s []any) any {
	if s == nil {
		return nil
	}
	out := make([]any, 0, len(s))
	for _, val := range s {
		if c := Clean(val); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func nilOr(rv reflect.Value, v any) any {
	if rv.IsNil() {
		return nil
	}
	return v
}
