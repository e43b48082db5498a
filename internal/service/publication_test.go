package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/manga/internal/cache"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/queue"
	"github.com/emrgen/manga/internal/tester"
)

func TestPublicationService_PublishCycle(t *testing.T) {
	s, pub := newTestService(t)
	p := NewPublicationService(s, time.Minute)
	ctx := context.Background()
	id := createDemo(t, s)
	require.NoError(t, s.UpdateProject(ctx, id, map[string]any{"tags": []string{"shonen"}, "genre": "action"}))

	record, err := p.Publish(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", record.Version)
	assert.Equal(t, "Demo", record.Title)
	assert.Equal(t, []string{"shonen"}, record.Tags)
	assert.Equal(t, 1, record.TotalPages)

	project, err := s.GetProject(ctx, id)
	require.NoError(t, err)
	assert.True(t, project.IsPublished)
	assert.Equal(t, manga.StatusPublished, project.Status)

	_, err = s.AddPage(ctx, id, nil)
	require.NoError(t, err)

	record, err = p.Publish(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.0.2", record.Version)
	assert.Equal(t, 2, record.TotalPages)

	got, err := p.GetPublished(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.0.2", got.Version)
	assert.Len(t, got.Pages, 2)

	require.NoError(t, p.Unpublish(ctx, id))
	_, err = p.GetPublished(ctx, id)
	assert.ErrorIs(t, err, ErrNotPublished)
	assert.ErrorIs(t, p.Unpublish(ctx, id), ErrNotPublished)

	project, err = s.GetProject(ctx, id)
	require.NoError(t, err)
	assert.False(t, project.IsPublished)
	assert.Equal(t, manga.StatusEditing, project.Status)

	assert.Contains(t, pub.kinds(), queue.ProjectPublished)
	assert.Contains(t, pub.kinds(), queue.ProjectUnpublished)
}

func TestPublicationService_GetPublishedReadsStore(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := createDemo(t, s)

	_, err := NewPublicationService(s, time.Minute).Publish(ctx, id)
	require.NoError(t, err)

	// a second instance has a cold cache
	got, err := NewPublicationService(s, time.Minute).GetPublished(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "0.0.1", got.Version)
}

func TestPublicationService_Errors(t *testing.T) {
	s, _ := newTestService(t)
	p := NewPublicationService(s, time.Minute)
	ctx := context.Background()

	_, err := p.Publish(ctx, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
	assert.ErrorIs(t, p.Unpublish(ctx, "missing"), ErrProjectNotFound)
	_, err = p.GetPublished(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotPublished)
}

func TestPublicationService_SharedRedisCache(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := createDemo(t, s)
	records := cache.NewRedis(tester.Redis(t), time.Minute)

	writer := NewPublicationService(s, time.Minute, WithRecordCache(records))
	_, err := writer.Publish(ctx, id)
	require.NoError(t, err)

	var cached PublishedManga
	ok, err := records.Get(ctx, id, &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.0.1", cached.Version)

	reader := NewPublicationService(s, time.Minute, WithRecordCache(records))
	require.NoError(t, writer.Unpublish(ctx, id))
	_, err = reader.GetPublished(ctx, id)
	assert.ErrorIs(t, err, ErrNotPublished)
}
