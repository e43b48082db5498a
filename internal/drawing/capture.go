package drawing

import (
	"strconv"
	"sync"
	"time"

	"github.com/emrgen/manga/internal/manga"
)

type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// Default brush settings of a fresh capture.
const (
	DefaultColor = "#000000"
	DefaultWidth = 2.0
)

type Option func(*Capture)

// WithClock replaces time.Now as the source of stroke ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Capture) { c.now = now }
}

// WithPaths seeds the working list, typically with the panel's persisted paths.
func WithPaths(paths []manga.DrawingPath) Option {
	return func(c *Capture) {
		c.paths = append(c.paths[:0], paths...)
		for _, p := range paths {
			if id, err := strconv.ParseInt(p.ID, 10, 64); err == nil && id > c.lastID {
				c.lastID = id
			}
		}
	}
}

// Capture turns pointer events on a panel canvas into drawing paths.
//
// Down starts a stroke at the touch point, Move extends it and Up commits it to
// the working list. The working list is what gets handed to the service when
// the panel is saved.
type Capture struct {
	mu sync.Mutex

	color string
	width float64
	tool  manga.Tool

	state   State
	current Path
	moved   bool
	paths   []manga.DrawingPath
	lastID  int64
	now     func() time.Time
}

func NewCapture(opts ...Option) *Capture {
	c := &Capture{
		color: DefaultColor,
		width: DefaultWidth,
		tool:  manga.ToolPen,
		paths: make([]manga.DrawingPath, 0),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select changes the brush used by the next committed stroke.
func (c *Capture) Select(color string, width float64, tool manga.Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.color, c.width, c.tool = color, width, tool
}

func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Down begins a new stroke. An uncommitted stroke in progress is dropped.
func (c *Capture) Down(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current.Reset()
	c.current.MoveTo(x, y)
	c.moved = false
	c.state = Drawing
}

// Move extends the stroke in progress. Ignored while idle.
func (c *Capture) Move(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Drawing {
		return
	}
	c.current.LineTo(x, y)
	c.moved = true
}

// Up commits the stroke in progress and returns it. A tap without movement
// is committed as a one unit segment so the dot stays visible.
func (c *Capture) Up() (manga.DrawingPath, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Drawing {
		return manga.DrawingPath{}, false
	}
	c.state = Idle
	if c.current.Empty() {
		return manga.DrawingPath{}, false
	}

	if !c.moved {
		start := c.current.Cmds[0].Pt
		c.current.LineTo(start.X+1, start.Y)
	}

	ts := c.nextID()
	path := manga.DrawingPath{
		ID:          strconv.FormatInt(ts, 10),
		D:           c.current.String(),
		Stroke:      c.color,
		StrokeWidth: c.width,
		Tool:        c.tool,
		Timestamp:   ts,
	}
	c.paths = append(c.paths, path)
	c.current.Reset()
	c.moved = false

	return path, true
}

// Clear discards the working list and any stroke in progress.
func (c *Capture) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths = make([]manga.DrawingPath, 0)
	c.current.Reset()
	c.state = Idle
}

// Paths returns a copy of the working list.
func (c *Capture) Paths() []manga.DrawingPath {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]manga.DrawingPath, 0, len(c.paths)), c.paths...)
}

// nextID returns the unix millisecond timestamp, bumped past the previous id
// when two strokes land in the same millisecond.
func (c *Capture) nextID() int64 {
	ts := c.now().UnixMilli()
	if ts <= c.lastID {
		ts = c.lastID + 1
	}
	c.lastID = ts
	return ts
}

// Replay feeds a parsed path through the capture as pointer events. Every
// move starts a new stroke, so a descriptor with several moves commits
// several paths. It returns the committed strokes.
func (c *Capture) Replay(path *Path) []manga.DrawingPath {
	var committed []manga.DrawingPath
	up := func() {
		if p, ok := c.Up(); ok {
			committed = append(committed, p)
		}
	}

	for _, cmd := range path.Cmds {
		switch cmd.Op {
		case MoveTo:
			up()
			c.Down(cmd.Pt.X, cmd.Pt.Y)
		case LineTo:
			c.Move(cmd.Pt.X, cmd.Pt.Y)
		}
	}
	up()

	return committed
}
