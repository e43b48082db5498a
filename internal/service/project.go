package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/sanitize"
	"github.com/emrgen/manga/internal/store"
)

const (
	// ProjectCollection holds manga projects next to plain text books.
	ProjectCollection = "books"
	// PublishedCollection holds the public records of published projects.
	PublishedCollection = "published_manga"
)

type Option func(*MangaProjectService)

// WithClock replaces time.Now for createdAt and updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *MangaProjectService) { s.now = now }
}

// WithPublisher sets where change events are announced.
func WithPublisher(p queue.ChangePublisher) Option {
	return func(s *MangaProjectService) { s.publisher = p }
}

// NewMangaProjectService creates a new MangaProjectService.
func NewMangaProjectService(store store.DocumentStore, opts ...Option) *MangaProjectService {
	service := &MangaProjectService{
		store:     store,
		now:       time.Now,
		publisher: queue.NewNopPublisher(),
	}
	for _, opt := range opts {
		opt(service)
	}

	return service
}

// MangaProjectService edits manga projects stored as whole documents.
//
// Every mutation reads the project, changes it in memory and writes the
// changed fields back. There is no locking between the read and the write, so
// two concurrent edits of the same project race and the last write wins.
type MangaProjectService struct {
	store     store.DocumentStore
	now       func() time.Time
	publisher queue.ChangePublisher
}

type CreateProjectRequest struct {
	Title       string       `json:"title"`
	AuthorID    string       `json:"authorId"`
	AuthorUID   string       `json:"authorUid,omitempty"`
	AuthorName  string       `json:"authorName,omitempty"`
	Pages       []manga.Page `json:"pages,omitempty"`
	TemplateID  string       `json:"templateId,omitempty"`
	Description string       `json:"description,omitempty"`
	Genre       string       `json:"genre,omitempty"`
}

// CreateProject stores a new draft project and returns its id.
func (s *MangaProjectService) CreateProject(ctx context.Context, req CreateProjectRequest) (string, error) {
	project := manga.NewProject(manga.NewProjectParams{
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		AuthorUID:   req.AuthorUID,
		AuthorName:  req.AuthorName,
		Pages:       req.Pages,
		TemplateID:  req.TemplateID,
		Description: req.Description,
		Genre:       req.Genre,
	}, s.stamp())

	fields, err := sanitize.ToFields(project)
	if err != nil {
		return "", err
	}
	if _, err := checkFields(fields, true); err != nil {
		return "", err
	}

	id, err := s.store.CreateDocument(ctx, ProjectCollection, fields)
	if err != nil {
		return "", fmt.Errorf("create project: %w", err)
	}

	logrus.Infof("created manga project %s with %d pages", id, project.TotalPages)
	s.announce(ctx, queue.ProjectCreated, id, "", "")

	return id, nil
}

// GetProject reads a project. Documents of another type are reported as not found.
func (s *MangaProjectService) GetProject(ctx context.Context, id string) (*manga.Project, error) {
	fields, err := s.store.GetDocument(ctx, ProjectCollection, id)
	if err != nil {
		return nil, s.storeError(id, err)
	}

	return decodeProject(id, fields)
}

// ListProjects returns the projects of an author, most recently updated first.
// An empty author lists every project.
func (s *MangaProjectService) ListProjects(ctx context.Context, authorID string) ([]*manga.Project, error) {
	docs, err := s.store.ListDocuments(ctx, ProjectCollection)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]*manga.Project, 0, len(docs))
	for _, fields := range docs {
		if store.Kind(fields) != manga.DocumentType {
			continue
		}
		if authorID != "" && fields["authorId"] != authorID {
			continue
		}

		id, _ := fields["id"].(string)
		project, err := decodeProject(id, fields)
		if err != nil {
			logrus.Warnf("skipping unreadable project %s: %v", id, err)
			continue
		}
		projects = append(projects, project)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})

	return projects, nil
}

// UpdateProject merges arbitrary top level fields into the project. The
// updates are sanitized and stamped with updatedAt before the write, and the
// merged document must still be a valid manga project. totalPages is derived
// and never taken from the updates. When the updates replace the pages they
// are renumbered in their given order, totalPages is recounted and the current
// page pointer falls back to the first page if its page is gone.
func (s *MangaProjectService) UpdateProject(ctx context.Context, id string, updates map[string]any) error {
	current, err := s.store.GetDocument(ctx, ProjectCollection, id)
	if err != nil {
		return s.storeError(id, err)
	}
	if store.Kind(current) != manga.DocumentType {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	cleaned := sanitize.Fields(updates)
	delete(cleaned, "id")
	delete(cleaned, "totalPages")

	merged := make(store.Fields, len(current)+len(cleaned))
	maps.Copy(merged, current)
	maps.Copy(merged, cleaned)

	_, pagesChanged := cleaned["pages"]
	project, err := checkFields(merged, pagesChanged)
	if err != nil {
		return err
	}

	if pagesChanged {
		derived, err := sanitize.ToFields(pagesUpdate{
			Pages:         project.Pages,
			TotalPages:    project.TotalPages,
			CurrentPageID: project.CurrentPageID,
		})
		if err != nil {
			return err
		}
		maps.Copy(cleaned, derived)
	}

	if err := s.write(ctx, id, cleaned); err != nil {
		return err
	}

	s.announce(ctx, queue.ProjectUpdated, id, "", "")
	return nil
}

type pagesUpdate struct {
	Pages         []manga.Page `json:"pages"`
	TotalPages    int          `json:"totalPages"`
	CurrentPageID string       `json:"currentPageId,omitempty"`
}

// AddPage inserts a default page after the given page number, or appends it
// when insertAfter is nil, and returns the new page.
func (s *MangaProjectService) AddPage(ctx context.Context, id string, insertAfter *int) (*manga.Page, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	page, err := project.InsertPage(insertAfter)
	if err != nil {
		return nil, err
	}

	err = s.writeStruct(ctx, id, pagesUpdate{Pages: project.Pages, TotalPages: project.TotalPages})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, queue.PageAdded, id, page.ID, "")
	return &page, nil
}

// DeletePage removes a page and renumbers the rest. The only page of a
// project cannot be deleted.
func (s *MangaProjectService) DeletePage(ctx context.Context, id, pageID string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}

	if err := project.RemovePage(pageID); err != nil {
		return err
	}

	err = s.writeStruct(ctx, id, pagesUpdate{
		Pages:         project.Pages,
		TotalPages:    project.TotalPages,
		CurrentPageID: project.CurrentPageID,
	})
	if err != nil {
		return err
	}

	s.announce(ctx, queue.PageDeleted, id, pageID, "")
	return nil
}

// DuplicatePage appends a deep copy of a page and returns the copy.
func (s *MangaProjectService) DuplicatePage(ctx context.Context, id, pageID string) (*manga.Page, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	page, err := project.DuplicatePage(pageID)
	if err != nil {
		return nil, err
	}

	err = s.writeStruct(ctx, id, pagesUpdate{Pages: project.Pages, TotalPages: project.TotalPages})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, queue.PageDuplicated, id, page.ID, "")
	return &page, nil
}

// SavePanelDrawings replaces every path of a panel with paths.
func (s *MangaProjectService) SavePanelDrawings(ctx context.Context, id, pageID, panelID string, paths []manga.DrawingPath) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}

	if err := project.ReplacePanelPaths(pageID, panelID, paths); err != nil {
		return err
	}

	err = s.writeStruct(ctx, id, pagesUpdate{Pages: project.Pages, TotalPages: project.TotalPages})
	if err != nil {
		return err
	}

	logrus.Debugf("saved %d paths on project %s page %s panel %s", len(paths), id, pageID, panelID)
	s.announce(ctx, queue.PanelDrawingsSaved, id, pageID, panelID)
	return nil
}

// SetCurrentPage moves the current page pointer. The page id is not checked.
func (s *MangaProjectService) SetCurrentPage(ctx context.Context, id, pageID string) error {
	if err := s.write(ctx, id, map[string]any{"currentPageId": pageID}); err != nil {
		return err
	}

	s.announce(ctx, queue.CurrentPageChanged, id, pageID, "")
	return nil
}

func (s *MangaProjectService) writeStruct(ctx context.Context, id string, update any) error {
	fields, err := sanitize.ToFields(update)
	if err != nil {
		return err
	}

	return s.write(ctx, id, fields)
}

// write sanitizes the fields, stamps updatedAt and merges them into the project.
func (s *MangaProjectService) write(ctx context.Context, id string, fields map[string]any) error {
	cleaned := sanitize.Fields(fields)
	cleaned["updatedAt"] = s.stamp()

	if err := s.store.UpdateDocument(ctx, ProjectCollection, id, cleaned); err != nil {
		return s.storeError(id, err)
	}

	return nil
}

func (s *MangaProjectService) stamp() time.Time {
	return s.now().UTC()
}

func (s *MangaProjectService) announce(ctx context.Context, kind queue.ChangeKind, id, pageID, panelID string) {
	err := s.publisher.PublishChange(ctx, &queue.ProjectChange{
		Kind:      kind,
		ProjectID: id,
		PageID:    pageID,
		PanelID:   panelID,
		At:        s.stamp(),
	})
	if err != nil {
		logrus.Errorf("error publishing %s for project %s: %v", kind, id, err)
	}
}

func (s *MangaProjectService) storeError(id string, err error) error {
	if errors.Is(err, store.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return fmt.Errorf("project %s: %w", id, err)
}

// checkFields decodes a document about to be written against the project
// schema. With reindex set its pages are renumbered and the structural
// invariants are checked as well.
func checkFields(fields store.Fields, reindex bool) (*manga.Project, error) {
	if kind := store.Kind(fields); kind != manga.DocumentType {
		return nil, fmt.Errorf("%w: document type %q", ErrInvalidProject, kind)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	project, err := manga.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if !reindex {
		return project, nil
	}

	project.Reindex()
	if err := project.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}

	return project, nil
}

func decodeProject(id string, fields store.Fields) (*manga.Project, error) {
	if store.Kind(fields) != manga.DocumentType {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	project, err := manga.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", id, err)
	}
	project.ID = id

	return project, nil
}
