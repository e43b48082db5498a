package drawing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDescriptor is returned when a path descriptor cannot be parsed.
var ErrInvalidDescriptor = errors.New("invalid path descriptor")

type Op uint8

const (
	MoveTo Op = iota
	LineTo
)

func (o Op) letter() string {
	if o == MoveTo {
		return "M"
	}
	return "L"
}

// Point is a position on the panel canvas.
type Point struct{ X, Y float64 }

type Cmd struct {
	Op Op
	Pt Point
}

// Path is a polyline built from move and line commands. Its String form is
// the "M x,y L x,y" descriptor stored on a DrawingPath.
type Path struct{ Cmds []Cmd }

func (p *Path) MoveTo(x, y float64) { p.Cmds = append(p.Cmds, Cmd{Op: MoveTo, Pt: Point{x, y}}) }
func (p *Path) LineTo(x, y float64) { p.Cmds = append(p.Cmds, Cmd{Op: LineTo, Pt: Point{x, y}}) }

func (p *Path) Empty() bool { return len(p.Cmds) == 0 }

func (p *Path) Reset() { p.Cmds = p.Cmds[:0] }

func (p *Path) String() string {
	var sb strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(c.Op.letter())
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(c.Pt.X))
		sb.WriteByte(',')
		sb.WriteString(formatCoord(c.Pt.Y))
	}
	return sb.String()
}

// Bounds returns the axis-aligned box of all points, zero for an empty path.
func (p *Path) Bounds() Rect {
	if len(p.Cmds) == 0 {
		return Rect{}
	}
	minX, minY := p.Cmds[0].Pt.X, p.Cmds[0].Pt.Y
	maxX, maxY := minX, minY
	for _, c := range p.Cmds[1:] {
		minX = min(minX, c.Pt.X)
		minY = min(minY, c.Pt.Y)
		maxX = max(maxX, c.Pt.X)
		maxY = max(maxY, c.Pt.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Rect is an axis-aligned rectangle defined by its min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

// ParseDescriptor parses the compact descriptor form. Both "M 1,2" and "M1,2"
// are accepted, and coordinate pairs following a command repeat it, with a
// repeated move turning into a line as in SVG.
func ParseDescriptor(d string) (*Path, error) {
	path := &Path{}
	op, haveOp := MoveTo, false

	for _, tok := range strings.Fields(d) {
		switch tok[0] {
		case 'M', 'm':
			op, haveOp = MoveTo, true
			tok = tok[1:]
		case 'L', 'l':
			op, haveOp = LineTo, true
			tok = tok[1:]
		}
		if tok == "" {
			continue
		}
		if !haveOp {
			return nil, fmt.Errorf("%w: coordinates before first command", ErrInvalidDescriptor)
		}

		pt, err := parsePoint(tok)
		if err != nil {
			return nil, err
		}
		path.Cmds = append(path.Cmds, Cmd{Op: op, Pt: pt})
		if op == MoveTo {
			op = LineTo
		}
	}

	if len(path.Cmds) > 0 && path.Cmds[0].Op != MoveTo {
		return nil, fmt.Errorf("%w: path must start with a move", ErrInvalidDescriptor)
	}

	return path, nil
}

func parsePoint(tok string) (Point, error) {
	xs, ys, ok := strings.Cut(tok, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w: expected x,y got %q", ErrInvalidDescriptor, tok)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	return Point{x, y}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
