package manga

import (
	"fmt"
	"sort"
)

// InsertPage adds a default page. With insertAfter nil the page is appended;
// otherwise it takes number insertAfter+1 and only the pages at or above that
// number are shifted up by one. RemovePage renumbers every page instead, the
// two strategies agree as long as numbering was contiguous beforehand.
func (p *Project) InsertPage(insertAfter *int) (Page, error) {
	number := len(p.Pages) + 1
	if insertAfter != nil {
		if *insertAfter < 0 || *insertAfter > len(p.Pages) {
			return Page{}, fmt.Errorf("%w: %d", ErrInvalidPageNumber, *insertAfter)
		}
		number = *insertAfter + 1
		for i := range p.Pages {
			if p.Pages[i].PageNumber >= number {
				p.Pages[i].PageNumber++
				p.Pages[i].Order++
			}
		}
	}

	page := NewDefaultPage(p.NextPageID(), number)
	p.Pages = append(p.Pages, page)
	sort.SliceStable(p.Pages, func(i, j int) bool { return p.Pages[i].PageNumber < p.Pages[j].PageNumber })
	p.TotalPages = len(p.Pages)

	return page, nil
}

// RemovePage deletes a page and renumbers the remaining pages from 1.
// The current page pointer moves to the first page when it pointed at the
// removed page.
func (p *Project) RemovePage(pageID string) error {
	if len(p.Pages) == 1 {
		return ErrLastPage
	}
	idx, _, err := p.FindPage(pageID)
	if err != nil {
		return err
	}

	p.Pages = append(p.Pages[:idx], p.Pages[idx+1:]...)
	p.renumber()

	if p.CurrentPageID == pageID {
		p.CurrentPageID = ""
		if len(p.Pages) > 0 {
			p.CurrentPageID = p.Pages[0].ID
		}
	}

	return nil
}

// DuplicatePage appends a deep copy of the page at the end of the project.
// Other pages keep their numbers. The copy is titled "<title> (Copie)"; an
// untitled source is named after its number first, giving "Page N (Copie)".
func (p *Project) DuplicatePage(pageID string) (Page, error) {
	_, src, err := p.FindPage(pageID)
	if err != nil {
		return Page{}, err
	}

	title := src.Title
	if title == "" {
		title = fmt.Sprintf("Page %d", src.PageNumber)
	}

	count := len(p.Pages)
	page := src.Clone()
	page.ID = p.NextPageID()
	page.PageNumber = count + 1
	page.Order = count
	page.Title = title + " (Copie)"

	p.Pages = append(p.Pages, page)
	p.TotalPages = len(p.Pages)

	return page, nil
}

// ReplacePanelPaths overwrites the whole path collection of a panel.
func (p *Project) ReplacePanelPaths(pageID, panelID string, paths []DrawingPath) error {
	panel, err := p.FindPanel(pageID, panelID)
	if err != nil {
		return err
	}
	panel.Paths = append(make([]DrawingPath, 0, len(paths)), paths...)
	return nil
}

// Reindex renumbers the pages from their slice order, recounts totalPages and
// moves the current page pointer to the first page when it names no page.
func (p *Project) Reindex() {
	p.renumber()
	if _, _, err := p.FindPage(p.CurrentPageID); err != nil {
		p.CurrentPageID = ""
		if len(p.Pages) > 0 {
			p.CurrentPageID = p.Pages[0].ID
		}
	}
}

func (p *Project) renumber() {
	for i := range p.Pages {
		p.Pages[i].PageNumber = i + 1
		p.Pages[i].Order = i
	}
	p.TotalPages = len(p.Pages)
}
