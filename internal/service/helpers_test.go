package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/store"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []queue.ProjectChange
}

func (r *recordingPublisher) PublishChange(_ context.Context, change *queue.ProjectChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, *change)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) kinds() []queue.ChangeKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]queue.ChangeKind, 0, len(r.changes))
	for _, c := range r.changes {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

// tickingClock advances one second on every call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := testNow
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

var errRemote = errors.New("remote unavailable")

// failingStore fails every update once failUpdates is set.
type failingStore struct {
	store.DocumentStore
	failUpdates bool
}

func (f *failingStore) UpdateDocument(ctx context.Context, collection, id string, fields store.Fields) error {
	if f.failUpdates {
		return errRemote
	}
	return f.DocumentStore.UpdateDocument(ctx, collection, id, fields)
}

func newTestService(t *testing.T, opts ...Option) (*MangaProjectService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	opts = append([]Option{WithClock(tickingClock()), WithPublisher(pub)}, opts...)
	return NewMangaProjectService(store.NewMemoryStore(), opts...), pub
}

func createDemo(t *testing.T, s *MangaProjectService) string {
	t.Helper()
	id, err := s.CreateProject(context.Background(), CreateProjectRequest{Title: "Demo", AuthorID: "author-1", AuthorName: "Mika"})
	require.NoError(t, err)
	return id
}

func pageNumbers(p *manga.Project) []int {
	numbers := make([]int, 0, len(p.Pages))
	for _, page := range p.Pages {
		numbers = append(numbers, page.PageNumber)
	}
	return numbers
}
