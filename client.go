package manga

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/service"
)

// ErrNotFound is matched by API errors with a 404 status.
var ErrNotFound = errors.New("not found")

// APIError is a non 2xx answer of the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the manga REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the server at addr, either a full URL or host:port.
func NewClient(addr string, opts ...ClientOption) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		baseURL: strings.TrimRight(addr, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateProject(ctx context.Context, req service.CreateProjectRequest) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/projects", req, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*manga.Project, error) {
	var project manga.Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(id), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects lists the projects of an author, every project when authorID is empty.
func (c *Client) ListProjects(ctx context.Context, authorID string) ([]*manga.Project, error) {
	path := "/v1/projects"
	if authorID != "" {
		path += "?authorId=" + url.QueryEscape(authorID)
	}

	var res struct {
		Projects []*manga.Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Projects, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, updates map[string]any) (*manga.Project, error) {
	var project manga.Project
	if err := c.do(ctx, http.MethodPatch, "/v1/projects/"+url.PathEscape(id), updates, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// AddPage appends a page, or inserts it after page number insertAfter when set.
func (c *Client) AddPage(ctx context.Context, id string, insertAfter *int) (*manga.Page, error) {
	body := map[string]any{}
	if insertAfter != nil {
		body["insertAfter"] = *insertAfter
	}

	var page manga.Page
	if err := c.do(ctx, http.MethodPost, c.projectPath(id, "pages"), body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) DeletePage(ctx context.Context, id, pageID string) error {
	return c.do(ctx, http.MethodDelete, c.projectPath(id, "pages", pageID), nil, nil)
}

func (c *Client) DuplicatePage(ctx context.Context, id, pageID string) (*manga.Page, error) {
	var page manga.Page
	if err := c.do(ctx, http.MethodPost, c.projectPath(id, "pages", pageID, "duplicate"), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) SetCurrentPage(ctx context.Context, id, pageID string) error {
	return c.do(ctx, http.MethodPut, c.projectPath(id, "current-page"), map[string]string{"pageId": pageID}, nil)
}

// SavePanelDrawings replaces every path of a panel.
func (c *Client) SavePanelDrawings(ctx context.Context, id, pageID, panelID string, paths []manga.DrawingPath) error {
	if paths == nil {
		paths = make([]manga.DrawingPath, 0)
	}
	body := map[string]any{"paths": paths}
	return c.do(ctx, http.MethodPut, c.projectPath(id, "pages", pageID, "panels", panelID, "paths"), body, nil)
}

func (c *Client) Publish(ctx context.Context, id string) (*service.PublishedManga, error) {
	var record service.PublishedManga
	if err := c.do(ctx, http.MethodPost, c.projectPath(id, "publish"), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) Unpublish(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.projectPath(id, "publish"), nil, nil)
}

func (c *Client) GetPublished(ctx context.Context, id string) (*service.PublishedManga, error) {
	var record service.PublishedManga
	if err := c.do(ctx, http.MethodGet, "/v1/published/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *Client) ListBackups(ctx context.Context, id string) ([]service.ProjectBackup, error) {
	var res struct {
		Backups []service.ProjectBackup `json:"backups"`
	}
	if err := c.do(ctx, http.MethodGet, c.projectPath(id, "backups"), nil, &res); err != nil {
		return nil, err
	}
	return res.Backups, nil
}

func (c *Client) RestoreBackup(ctx context.Context, id string, version int64) (*manga.Project, error) {
	var project manga.Project
	path := c.projectPath(id, "backups", strconv.FormatInt(version, 10), "restore")
	if err := c.do(ctx, http.MethodPost, path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) projectPath(id string, parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, url.PathEscape(id))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return "/v1/projects/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &APIError{StatusCode: res.StatusCode, Message: e.Error}
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
