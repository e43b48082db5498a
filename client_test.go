package manga

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emrgen/manga/internal/config"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/server"
	"github.com/emrgen/manga/internal/service"
	"github.com/emrgen/manga/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	projects := service.NewMangaProjectService(store.NewMemoryStore())
	handler := server.NewHandler(projects, service.NewPublicationService(projects, time.Minute), service.NewProjectBackupService(projects, nil))

	cfg := config.Defaults().HTTP
	srv := httptest.NewServer(server.NewRouter(cfg, handler))
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, WithHTTPClient(srv.Client()))
}

func TestClient_Projects(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateProject(ctx, service.CreateProjectRequest{Title: "Demo", AuthorID: "author-1"})
	require.NoError(t, err)

	project, err := c.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Demo", project.Title)

	project, err = c.UpdateProject(ctx, id, map[string]any{"description": "short"})
	require.NoError(t, err)
	assert.Equal(t, "short", project.Description)

	projects, err := c.ListProjects(ctx, "author-1")
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	_, err = c.GetProject(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "project not found")
}

func TestClient_PagesAndPanels(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateProject(ctx, service.CreateProjectRequest{Title: "Demo"})
	require.NoError(t, err)

	second, err := c.AddPage(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.PageNumber)

	front := 0
	first, err := c.AddPage(ctx, id, &front)
	require.NoError(t, err)
	assert.Equal(t, 1, first.PageNumber)

	dup, err := c.DuplicatePage(ctx, id, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, dup.PageNumber)

	require.NoError(t, c.DeletePage(ctx, id, first.ID))
	require.NoError(t, c.SetCurrentPage(ctx, id, dup.ID))

	paths := []manga.DrawingPath{{ID: "1", D: "M 1,1 L 2,2", Stroke: "#000000", StrokeWidth: 2}}
	require.NoError(t, c.SavePanelDrawings(ctx, id, dup.ID, "1", paths))

	project, err := c.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, project.TotalPages)
	assert.Equal(t, dup.ID, project.CurrentPageID)
	assert.Equal(t, paths, project.Pages[2].Panels[0].Paths)
}

func TestClient_Publication(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateProject(ctx, service.CreateProjectRequest{Title: "Demo"})
	require.NoError(t, err)

	record, err := c.Publish(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", record.Version)

	record, err = c.GetPublished(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Demo", record.Title)

	require.NoError(t, c.Unpublish(ctx, id))
	_, err = c.GetPublished(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.ListBackups(ctx, id)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotImplemented, apiErr.StatusCode)
}

func TestNewClient_Address(t *testing.T) {
	assert.Equal(t, "http://localhost:4020", NewClient("localhost:4020").baseURL)
	assert.Equal(t, "https://manga.example", NewClient("https://manga.example/").baseURL)
}
