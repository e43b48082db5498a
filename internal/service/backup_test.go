package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/manga/internal/compress"
	"github.com/emrgen/manga/internal/store"
	"github.com/emrgen/manga/internal/tester"
)

func TestProjectBackupService(t *testing.T) {
	gs := store.NewGormStore(tester.TestDB(), compress.NewLZ4())
	s := NewMangaProjectService(gs, WithClock(tickingClock()))
	b := NewProjectBackupService(s, gs)
	ctx := context.Background()
	id := createDemo(t, s)

	require.NoError(t, s.UpdateProject(ctx, id, map[string]any{"title": "Second"}))
	_, err := s.AddPage(ctx, id, nil)
	require.NoError(t, err)

	backups, err := b.ListBackups(ctx, id)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, int64(2), backups[0].Version)
	assert.Equal(t, "Second", backups[0].Title)
	assert.Equal(t, int64(1), backups[1].Version)
	assert.Equal(t, "Demo", backups[1].Title)

	restored, err := b.RestoreBackup(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "Demo", restored.Title)

	project, err := s.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Demo", project.Title)
	assert.Equal(t, 1, project.TotalPages)

	_, err = b.GetBackup(ctx, id, 99)
	assert.ErrorIs(t, err, ErrBackupNotFound)
	_, err = b.ListBackups(ctx, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectBackupService_Unsupported(t *testing.T) {
	s, _ := newTestService(t)
	b := NewProjectBackupService(s, nil)

	_, err := b.ListBackups(context.Background(), createDemo(t, s))
	assert.ErrorIs(t, err, ErrBackupsUnsupported)
}
