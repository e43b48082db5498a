package drawing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		d       string
		want    []Cmd
		wantErr bool
	}{
		{
			name: "spaced",
			d:    "M 1,2 L 3,4",
			want: []Cmd{{MoveTo, Point{1, 2}}, {LineTo, Point{3, 4}}},
		},
		{
			name: "compact",
			d:    "M1,2 L3.5,-4",
			want: []Cmd{{MoveTo, Point{1, 2}}, {LineTo, Point{3.5, -4}}},
		},
		{
			name: "implicit line after move",
			d:    "M 0,0 1,1 2,2",
			want: []Cmd{{MoveTo, Point{0, 0}}, {LineTo, Point{1, 1}}, {LineTo, Point{2, 2}}},
		},
		{name: "empty", d: "", want: nil},
		{name: "no command", d: "1,2", wantErr: true},
		{name: "starts with line", d: "L 1,2", wantErr: true},
		{name: "bad pair", d: "M 1 2", wantErr: true},
		{name: "bad number", d: "M a,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := ParseDescriptor(tt.d)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDescriptor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, path.Cmds)
		})
	}
}

func TestPath_StringRoundTrip(t *testing.T) {
	p := &Path{}
	p.MoveTo(10, 20.25)
	p.LineTo(11, 19)

	parsed, err := ParseDescriptor(p.String())
	require.NoError(t, err)
	assert.Equal(t, p.Cmds, parsed.Cmds)
}

func TestPath_Bounds(t *testing.T) {
	p, err := ParseDescriptor("M 10,20 L 5,30 L 15,25")
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 5, Y: 20, W: 10, H: 10}, p.Bounds())

	assert.Equal(t, Rect{}, (&Path{}).Bounds())
}
