package manga

import "time"

// DocumentType is the discriminator stored on every manga project document.
// Plain text books live in the same collection with a different type.
const DocumentType = "manga"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusWriting   Status = "writing"
	StatusEditing   Status = "editing"
	StatusPublished Status = "published"
)

type Tool string

const (
	ToolPen    Tool = "pen"
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

type BubbleStyle string

const (
	BubbleSpeech  BubbleStyle = "speech"
	BubbleThought BubbleStyle = "thought"
	BubbleShout   BubbleStyle = "shout"
	BubbleWhisper BubbleStyle = "whisper"
)

// Project is the top level manga document.
// TotalPages and CurrentPageID are derived from Pages and are maintained by the
// mutation functions in this package.
type Project struct {
	ID            string    `json:"id,omitempty"`
	Title         string    `json:"title"`
	AuthorID      string    `json:"authorId"`
	AuthorUID     string    `json:"authorUid,omitempty"`
	AuthorName    string    `json:"authorName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Status        Status    `json:"status"`
	Pages         []Page    `json:"pages"`
	CurrentPageID string    `json:"currentPageId,omitempty"`
	TemplateID    string    `json:"templateId,omitempty"`
	IsPublished   bool      `json:"isPublished"`
	Description   string    `json:"description,omitempty"`
	CoverImage    string    `json:"coverImage,omitempty"`
	Genre         string    `json:"genre,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	TotalPages    int       `json:"totalPages"`
	Type          string    `json:"type"`
}

// Page is one sequentially numbered page of a project.
type Page struct {
	ID              string  `json:"id"`
	PageNumber      int     `json:"pageNumber"`
	Panels          []Panel `json:"panels"`
	Title           string  `json:"title,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Order           int     `json:"order"`
}

// Panel is a rectangular drawable region of a page. Geometry is expressed in
// percent (0-100) of the page canvas.
type Panel struct {
	ID              string        `json:"id"`
	X               float64       `json:"x"`
	Y               float64       `json:"y"`
	Width           float64       `json:"width"`
	Height          float64       `json:"height"`
	Paths           []DrawingPath `json:"paths"`
	Bubbles         []TextBubble  `json:"bubbles"`
	BackgroundImage string        `json:"backgroundImage,omitempty"`
	Order           int           `json:"order"`
}

// DrawingPath is a single freehand stroke. D holds the path descriptor in the
// compact "M x,y L x,y ..." form.
type DrawingPath struct {
	ID          string  `json:"id"`
	D           string  `json:"d"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Tool        Tool    `json:"tool,omitempty"`
	Timestamp   int64   `json:"timestamp"`
}

type TextBubble struct {
	ID              string      `json:"id"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	Text            string      `json:"text"`
	FontSize        float64     `json:"fontSize,omitempty"`
	FontFamily      string      `json:"fontFamily,omitempty"`
	Color           string      `json:"color,omitempty"`
	BackgroundColor string      `json:"backgroundColor,omitempty"`
	BorderRadius    float64     `json:"borderRadius,omitempty"`
	Rotation        float64     `json:"rotation,omitempty"`
	Style           BubbleStyle `json:"style,omitempty"`
}

// Clone returns a deep copy of the page.
func (p Page) Clone() Page {
	c := p
	c.Panels = make([]Panel, len(p.Panels))
	for i, panel := range p.Panels {
		c.Panels[i] = panel.Clone()
	}
	return c
}

// Clone returns a deep copy of the panel.
func (p Panel) Clone() Panel {
	c := p
	c.Paths = append(make([]DrawingPath, 0, len(p.Paths)), p.Paths...)
	c.Bubbles = append(make([]TextBubble, 0, len(p.Bubbles)), p.Bubbles...)
	return c
}

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	c := *p
	c.Pages = make([]Page, len(p.Pages))
	for i, page := range p.Pages {
		c.Pages[i] = page.Clone()
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	return &c
}

// normalize replaces nil collections with empty ones so that documents always
// carry "paths": [] and "bubbles": [] rather than omitting them.
func (p *Project) normalize() {
	if p.Pages == nil {
		p.Pages = make([]Page, 0)
	}
	for i := range p.Pages {
		page := &p.Pages[i]
		if page.Panels == nil {
			page.Panels = make([]Panel, 0)
		}
		for j := range page.Panels {
			panel := &page.Panels[j]
			if panel.Paths == nil {
				panel.Paths = make([]DrawingPath, 0)
			}
			if panel.Bubbles == nil {
				panel.Bubbles = make([]TextBubble, 0)
			}
		}
	}
}
