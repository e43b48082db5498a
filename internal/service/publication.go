package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver"
	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/cache"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/sanitize"
	"github.com/emrgen/manga/internal/store"
)

const initialPublishedVersion = "0.0.1"

// PublishedManga is the public, read only record of a published project.
type PublishedManga struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	AuthorID    string       `json:"authorId"`
	AuthorName  string       `json:"authorName,omitempty"`
	Description string       `json:"description,omitempty"`
	CoverImage  string       `json:"coverImage,omitempty"`
	Genre       string       `json:"genre,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	TotalPages  int          `json:"totalPages"`
	Pages       []manga.Page `json:"pages"`
	Version     string       `json:"version"`
	PublishedAt time.Time    `json:"publishedAt"`
}

type PublicationOption func(*PublicationService)

// WithRecordCache replaces the in process cache of public records.
func WithRecordCache(c cache.Cache) PublicationOption {
	return func(p *PublicationService) { p.cache = c }
}

// NewPublicationService creates a new PublicationService. Public records are
// cached for ttl.
func NewPublicationService(projects *MangaProjectService, ttl time.Duration, opts ...PublicationOption) *PublicationService {
	p := &PublicationService{
		projects: projects,
		store:    projects.store,
		cache:    cache.NewMemory(ttl),
		ttl:      ttl,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PublicationService copies projects into the public collection.
type PublicationService struct {
	projects *MangaProjectService
	store    store.DocumentStore
	cache    cache.Cache
	ttl      time.Duration
}

// Publish writes the public record of a project and marks the project as
// published. Every publish bumps the patch version of the record.
func (p *PublicationService) Publish(ctx context.Context, id string) (*PublishedManga, error) {
	project, err := p.projects.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	version, err := p.nextVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &PublishedManga{
		ID:          id,
		Title:       project.Title,
		AuthorID:    project.AuthorID,
		AuthorName:  project.AuthorName,
		Description: project.Description,
		CoverImage:  project.CoverImage,
		Genre:       project.Genre,
		Tags:        project.Tags,
		TotalPages:  project.TotalPages,
		Pages:       project.Pages,
		Version:     version.String(),
		PublishedAt: p.projects.stamp(),
	}

	fields, err := sanitize.ToFields(record)
	if err != nil {
		return nil, err
	}
	if err := p.store.SetDocument(ctx, PublishedCollection, id, fields); err != nil {
		return nil, fmt.Errorf("publish project %s: %w", id, err)
	}
	p.remember(ctx, record)

	err = p.projects.write(ctx, id, map[string]any{
		"isPublished": true,
		"status":      string(manga.StatusPublished),
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("published project %s version %s", id, record.Version)
	p.projects.announce(ctx, queue.ProjectPublished, id, "", "")

	return record, nil
}

// Unpublish removes the public record and moves the project back to editing.
func (p *PublicationService) Unpublish(ctx context.Context, id string) error {
	if _, err := p.projects.GetProject(ctx, id); err != nil {
		return err
	}

	err := p.store.DeleteDocument(ctx, PublishedCollection, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrNotPublished, id)
	}
	if err != nil {
		return fmt.Errorf("unpublish project %s: %w", id, err)
	}
	if err := p.cache.Delete(ctx, id); err != nil {
		logrus.Warnf("error evicting published project %s: %v", id, err)
	}

	err = p.projects.write(ctx, id, map[string]any{
		"isPublished": false,
		"status":      string(manga.StatusEditing),
	})
	if err != nil {
		return err
	}

	logrus.Infof("unpublished project %s", id)
	p.projects.announce(ctx, queue.ProjectUnpublished, id, "", "")

	return nil
}

// GetPublished reads the public record of a project.
func (p *PublicationService) GetPublished(ctx context.Context, id string) (*PublishedManga, error) {
	var cached PublishedManga
	ok, err := p.cache.Get(ctx, id, &cached)
	if err != nil {
		logrus.Warnf("error reading cached published project %s: %v", id, err)
	}
	if ok {
		return &cached, nil
	}

	record, err := p.load(ctx, id)
	if err != nil {
		return nil, err
	}
	p.remember(ctx, record)

	return record, nil
}

func (p *PublicationService) remember(ctx context.Context, record *PublishedManga) {
	if err := p.cache.Set(ctx, record.ID, record, p.ttl); err != nil {
		logrus.Warnf("error caching published project %s: %v", record.ID, err)
	}
}

func (p *PublicationService) load(ctx context.Context, id string) (*PublishedManga, error) {
	fields, err := p.store.GetDocument(ctx, PublishedCollection, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotPublished, id)
	}
	if err != nil {
		return nil, fmt.Errorf("published project %s: %w", id, err)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var record PublishedManga
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("published project %s: %w", id, err)
	}

	return &record, nil
}

func (p *PublicationService) nextVersion(ctx context.Context, id string) (*semver.Version, error) {
	prev, err := p.load(ctx, id)
	if errors.Is(err, ErrNotPublished) {
		return semver.NewVersion(initialPublishedVersion)
	}
	if err != nil {
		return nil, err
	}

	version, err := semver.NewVersion(prev.Version)
	if err != nil {
		return nil, fmt.Errorf("published project %s has invalid version %q: %w", id, prev.Version, err)
	}
	next := version.IncPatch()

	return &next, nil
}
