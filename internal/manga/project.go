package manga

import (
	"fmt"
	"strconv"
	"time"
)

// Default panel geometry: the whole canvas minus a small margin, in percent.
const (
	DefaultPanelX      = 5
	DefaultPanelY      = 5
	DefaultPanelWidth  = 90
	DefaultPanelHeight = 90
)

// NewProjectParams carries the caller supplied fields of a new project.
type NewProjectParams struct {
	Title       string
	AuthorID    string
	AuthorUID   string
	AuthorName  string
	Pages       []Page
	TemplateID  string
	Description string
	Genre       string
}

// NewProject builds a draft project. When no pages are supplied it gets a
// single default page holding one full canvas panel. Supplied pages are
// copied and renumbered from their slice order; the first one becomes the
// current page.
func NewProject(params NewProjectParams, now time.Time) *Project {
	pages := make([]Page, 0, len(params.Pages))
	for _, page := range params.Pages {
		pages = append(pages, page.Clone())
	}
	if len(pages) == 0 {
		pages = append(pages, NewDefaultPage("1", 1))
	}

	project := &Project{
		Title:       params.Title,
		AuthorID:    params.AuthorID,
		AuthorUID:   params.AuthorUID,
		AuthorName:  params.AuthorName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Status:      StatusDraft,
		Pages:       pages,
		TemplateID:  params.TemplateID,
		IsPublished: false,
		Description: params.Description,
		Genre:       params.Genre,
		Type:        DocumentType,
	}
	project.Reindex()
	project.normalize()

	return project
}

// NewDefaultPage returns a page with the given number and one default panel.
func NewDefaultPage(id string, number int) Page {
	return Page{
		ID:         id,
		PageNumber: number,
		Order:      number - 1,
		Title:      fmt.Sprintf("Page %d", number),
		Panels:     []Panel{NewDefaultPanel("1")},
	}
}

// NewDefaultPanel returns an empty panel spanning the full canvas.
func NewDefaultPanel(id string) Panel {
	return Panel{
		ID:      id,
		X:       DefaultPanelX,
		Y:       DefaultPanelY,
		Width:   DefaultPanelWidth,
		Height:  DefaultPanelHeight,
		Paths:   make([]DrawingPath, 0),
		Bubbles: make([]TextBubble, 0),
		Order:   0,
	}
}

// NextPageID returns the next free sequential page id ("1", "2", ...).
// Non numeric ids are skipped when looking for the maximum.
func (p *Project) NextPageID() string {
	maxN := 0
	exists := make(map[string]struct{}, len(p.Pages))
	for _, page := range p.Pages {
		exists[page.ID] = struct{}{}
		if n, err := strconv.Atoi(page.ID); err == nil && n > maxN {
			maxN = n
		}
	}
	for n := maxN + 1; ; n++ {
		id := strconv.Itoa(n)
		if _, ok := exists[id]; !ok {
			return id
		}
	}
}

// FindPage returns the index of the page with the given id.
func (p *Project) FindPage(pageID string) (int, *Page, error) {
	for i := range p.Pages {
		if p.Pages[i].ID == pageID {
			return i, &p.Pages[i], nil
		}
	}
	return -1, nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
}

// FindPanel returns the panel with the given id on the given page.
func (p *Project) FindPanel(pageID, panelID string) (*Panel, error) {
	_, page, err := p.FindPage(pageID)
	if err != nil {
		return nil, err
	}
	for i := range page.Panels {
		if page.Panels[i].ID == panelID {
			return &page.Panels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s on page %s", ErrPanelNotFound, panelID, pageID)
}
