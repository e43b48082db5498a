package manga

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newTestProject() *Project {
	return NewProject(NewProjectParams{Title: "Demo", AuthorID: "author-1"}, time.Unix(1700000000, 0))
}

func pageNumbers(p *Project) []int {
	numbers := make([]int, 0, len(p.Pages))
	for _, page := range p.Pages {
		numbers = append(numbers, page.PageNumber)
	}
	return numbers
}

func TestNewProject_DefaultPage(t *testing.T) {
	p := newTestProject()

	require.Len(t, p.Pages, 1)
	page := p.Pages[0]
	assert.Equal(t, "1", page.ID)
	assert.Equal(t, 1, page.PageNumber)
	assert.Equal(t, 0, page.Order)
	assert.Equal(t, "Page 1", page.Title)

	require.Len(t, page.Panels, 1)
	panel := page.Panels[0]
	assert.Equal(t, 5.0, panel.X)
	assert.Equal(t, 5.0, panel.Y)
	assert.Equal(t, 90.0, panel.Width)
	assert.Equal(t, 90.0, panel.Height)
	assert.Empty(t, panel.Paths)
	assert.Empty(t, panel.Bubbles)

	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, DocumentType, p.Type)
	assert.False(t, p.IsPublished)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, "1", p.CurrentPageID)
	assert.NoError(t, p.CheckInvariants())
}

func TestNewProject_SuppliedPages(t *testing.T) {
	p := NewProject(NewProjectParams{
		Title: "Supplied",
		Pages: []Page{NewDefaultPage("a", 1), NewDefaultPage("b", 2)},
	}, time.Now())

	assert.Equal(t, 2, p.TotalPages)
	assert.Equal(t, "a", p.CurrentPageID)
}

func TestNewProject_RenumbersSuppliedPages(t *testing.T) {
	supplied := []Page{
		{ID: "a", PageNumber: 5, Order: 7},
		{ID: "b", PageNumber: 9, Panels: []Panel{{ID: "1", Width: 50, Height: 50}}},
	}

	p := NewProject(NewProjectParams{Title: "Gapped", Pages: supplied}, time.Now())
	assert.Equal(t, []int{1, 2}, pageNumbers(p))
	assert.Equal(t, 0, p.Pages[0].Order)
	assert.Equal(t, 1, p.Pages[1].Order)
	assert.Equal(t, 2, p.TotalPages)
	require.NoError(t, p.CheckInvariants())

	page, err := p.InsertPage(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, page.PageNumber)

	// the caller's pages are left as they were
	assert.Equal(t, 5, supplied[0].PageNumber)
	assert.Nil(t, supplied[0].Panels)
	assert.Nil(t, supplied[1].Panels[0].Paths)
	assert.Nil(t, supplied[1].Panels[0].Bubbles)
}

func TestNewProject_DuplicateSuppliedIDs(t *testing.T) {
	p := NewProject(NewProjectParams{
		Title: "Twins",
		Pages: []Page{NewDefaultPage("a", 1), NewDefaultPage("a", 2)},
	}, time.Now())

	assert.Error(t, p.CheckInvariants())
}

func TestProject_Reindex(t *testing.T) {
	p := newTestProject()
	p.Pages = []Page{NewDefaultPage("x", 4), NewDefaultPage("y", 2), NewDefaultPage("z", 8)}
	p.CurrentPageID = "1"

	p.Reindex()
	assert.Equal(t, []int{1, 2, 3}, pageNumbers(p))
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, "x", p.CurrentPageID)
	require.NoError(t, p.CheckInvariants())

	p.CurrentPageID = "z"
	p.Reindex()
	assert.Equal(t, "z", p.CurrentPageID)
}

func TestProject_InsertPage(t *testing.T) {
	p := newTestProject()

	for i := 0; i < 3; i++ {
		_, err := p.InsertPage(nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, pageNumbers(p))
	assert.Equal(t, "1", p.CurrentPageID)

	former3, former4 := p.Pages[2].ID, p.Pages[3].ID

	page, err := p.InsertPage(intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.PageNumber)
	assert.Equal(t, 2, page.Order)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, pageNumbers(p))
	assert.Equal(t, page.ID, p.Pages[2].ID)
	assert.Equal(t, former3, p.Pages[3].ID)
	assert.Equal(t, former4, p.Pages[4].ID)
	assert.Equal(t, 5, p.TotalPages)
	assert.NoError(t, p.CheckInvariants())
}

func TestProject_InsertPageBounds(t *testing.T) {
	tests := []struct {
		name    string
		after   int
		wantErr bool
		wantNum int
	}{
		{name: "front", after: 0, wantNum: 1},
		{name: "end", after: 1, wantNum: 2},
		{name: "negative", after: -1, wantErr: true},
		{name: "past end", after: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProject()
			page, err := p.InsertPage(intPtr(tt.after))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPageNumber)
				assert.Len(t, p.Pages, 1)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNum, page.PageNumber)
			assert.NoError(t, p.CheckInvariants())
		})
	}
}

func TestProject_RemovePage(t *testing.T) {
	p := newTestProject()
	for i := 0; i < 4; i++ {
		_, err := p.InsertPage(nil)
		require.NoError(t, err)
	}
	p.Pages[3].Panels[0].Paths = []DrawingPath{{ID: "s1", D: "M 1,1 L 2,2"}}
	p.Pages[4].Panels[0].Bubbles = []TextBubble{{ID: "b1", Text: "hi"}}
	page4, page5 := p.Pages[3].Clone(), p.Pages[4].Clone()

	require.NoError(t, p.RemovePage(p.Pages[2].ID))

	assert.Equal(t, []int{1, 2, 3, 4}, pageNumbers(p))
	assert.Equal(t, 4, p.TotalPages)

	page4.PageNumber, page4.Order = 3, 2
	page5.PageNumber, page5.Order = 4, 3
	assert.Equal(t, page4, p.Pages[2])
	assert.Equal(t, page5, p.Pages[3])
}

func TestProject_RemoveCurrentPage(t *testing.T) {
	p := newTestProject()
	_, err := p.InsertPage(nil)
	require.NoError(t, err)

	require.NoError(t, p.RemovePage("1"))
	assert.Equal(t, p.Pages[0].ID, p.CurrentPageID)
	assert.NoError(t, p.CheckInvariants())
}

func TestProject_RemovePageErrors(t *testing.T) {
	p := newTestProject()
	before := p.Clone()

	assert.ErrorIs(t, p.RemovePage("1"), ErrLastPage)
	assert.Equal(t, before, p)

	_, err := p.InsertPage(nil)
	require.NoError(t, err)
	assert.ErrorIs(t, p.RemovePage("missing"), ErrPageNotFound)
}

func TestProject_DuplicatePage(t *testing.T) {
	p := newTestProject()
	for i := 0; i < 2; i++ {
		_, err := p.InsertPage(nil)
		require.NoError(t, err)
	}
	p.Pages[1].Panels[0].Paths = []DrawingPath{{ID: "s1", D: "M 1,1 L 2,2", Stroke: "#000"}}
	p.Pages[1].Panels[0].Bubbles = []TextBubble{{ID: "b1", Text: "hello", Style: BubbleShout}}
	before := p.Clone()

	dup, err := p.DuplicatePage(p.Pages[1].ID)
	require.NoError(t, err)

	require.Len(t, p.Pages, 4)
	assert.Equal(t, before.Pages, p.Pages[:3])
	assert.Equal(t, 4, dup.PageNumber)
	assert.Equal(t, 3, dup.Order)
	assert.NotEqual(t, before.Pages[1].ID, dup.ID)
	assert.Equal(t, "Page 2 (Copie)", dup.Title)
	assert.Equal(t, before.Pages[1].Panels, dup.Panels)
	assert.Equal(t, 4, p.TotalPages)

	// the copy must not share storage with the source
	p.Pages[3].Panels[0].Paths[0].Stroke = "#fff"
	assert.Equal(t, "#000", p.Pages[1].Panels[0].Paths[0].Stroke)
}

func TestProject_DuplicateUntitledPage(t *testing.T) {
	p := newTestProject()
	p.Pages[0].Title = ""

	dup, err := p.DuplicatePage("1")
	require.NoError(t, err)
	assert.Equal(t, "Page 1 (Copie)", dup.Title)
	assert.Empty(t, p.Pages[0].Title)
}

func TestProject_ReplacePanelPaths(t *testing.T) {
	p := newTestProject()
	for i := 0; i < 5; i++ {
		p.Pages[0].Panels[0].Paths = append(p.Pages[0].Panels[0].Paths, DrawingPath{ID: string(rune('a' + i))})
	}

	err := p.ReplacePanelPaths("1", "1", []DrawingPath{{ID: "x"}, {ID: "y"}})
	require.NoError(t, err)
	assert.Len(t, p.Pages[0].Panels[0].Paths, 2)

	assert.ErrorIs(t, p.ReplacePanelPaths("9", "1", nil), ErrPageNotFound)
	assert.ErrorIs(t, p.ReplacePanelPaths("1", "9", nil), ErrPanelNotFound)
}

func TestProject_RandomMutationsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	p := newTestProject()

	for step := 0; step < 500; step++ {
		switch rnd.Intn(4) {
		case 0:
			_, err := p.InsertPage(nil)
			require.NoError(t, err)
		case 1:
			_, err := p.InsertPage(intPtr(rnd.Intn(len(p.Pages) + 1)))
			require.NoError(t, err)
		case 2:
			err := p.RemovePage(p.Pages[rnd.Intn(len(p.Pages))].ID)
			if len(p.Pages) == 1 {
				require.ErrorIs(t, err, ErrLastPage)
			} else {
				require.NoError(t, err)
			}
		case 3:
			_, err := p.DuplicatePage(p.Pages[rnd.Intn(len(p.Pages))].ID)
			require.NoError(t, err)
		}
		require.NoError(t, p.CheckInvariants(), "step %d", step)
	}
}
