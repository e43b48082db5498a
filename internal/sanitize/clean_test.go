package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "scalar", in: 3.5, want: 3.5},
		{
			name: "drops nil values",
			in:   map[string]any{"a": 1, "b": nil},
			want: map[string]any{"a": 1},
		},
		{
			name: "collapses empty objects",
			in:   map[string]any{"a": map[string]any{"b": nil}, "c": "x"},
			want: map[string]any{"c": "x"},
		},
		{
			name: "everything empty",
			in:   map[string]any{"a": map[string]any{}},
			want: nil,
		},
		{
			name: "filters slices",
			in:   []any{1, nil, map[string]any{"x": nil}, map[string]any{"y": 2}},
			want: []any{1, map[string]any{"y": 2}},
		},
		{
			name: "keeps empty slices",
			in:   map[string]any{"paths": []any{}, "bubbles": []any{nil}},
			want: map[string]any{"paths": []any{}, "bubbles": []any{}},
		},
		{
			name: "typed containers",
			in:   map[string]any{"tags": []string{"a"}, "meta": map[string]string{"k": "v"}, "ptr": (*int)(nil)},
			want: map[string]any{"tags": []any{"a"}, "meta": map[string]any{"k": "v"}},
		},
		{
			name: "nested pages",
			in: map[string]any{"pages": []any{
				map[string]any{"id": "1", "title": nil, "panels": []any{map[string]any{"id": "1", "backgroundImage": nil}}},
			}},
			want: map[string]any{"pages": []any{
				map[string]any{"id": "1", "panels": []any{map[string]any{"id": "1"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Clean(got), "cleaning must be idempotent")
			assertNoNil(t, got)
		})
	}
}

func TestToFields(t *testing.T) {
	type inner struct {
		Note *string `json:"note"`
	}
	type doc struct {
		Title  string   `json:"title"`
		Cover  *string  `json:"cover"`
		Inner  inner    `json:"inner"`
		Tags   []string `json:"tags"`
		Counts []int    `json:"counts"`
	}

	fields, err := ToFields(doc{Title: "t", Counts: []int{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "t", "counts": []any{}}, fields)
}

func TestFields_NeverNil(t *testing.T) {
	assert.Equal(t, map[string]any{}, Fields(map[string]any{"a": nil}))
	assert.Equal(t, map[string]any{}, Fields(nil))
}

func assertNoNil(t *testing.T, v any) {
	t.Helper()
	switch tv := v.(type) {
	case map[string]any:
		for k, val := range tv {
			assert.NotNil(t, val, "key %s", k)
			assertNoNil(t, val)
		}
	case []any:
		for _, val := range tv {
			assert.NotNil(t, val)
			assertNoNil(t, val)
		}
	}
}
