package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/emrgen/manga/internal/drawing"
	"github.com/emrgen/manga/internal/export"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/service"
)

const maxBodyBytes = 8 << 20

// Handler serves the REST API over the project services.
type Handler struct {
	projects    *service.MangaProjectService
	publication *service.PublicationService
	backups     *service.ProjectBackupService
	mux         *http.ServeMux
}

func NewHandler(projects *service.MangaProjectService, publication *service.PublicationService, backups *service.ProjectBackupService) *Handler {
	h := &Handler{
		projects:    projects,
		publication: publication,
		backups:     backups,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /healthz", h.health)

	h.mux.HandleFunc("POST /v1/projects", h.createProject)
	h.mux.HandleFunc("GET /v1/projects", h.listProjects)
	h.mux.HandleFunc("GET /v1/projects/{id}", h.getProject)
	h.mux.HandleFunc("PATCH /v1/projects/{id}", h.updateProject)
	h.mux.HandleFunc("GET /v1/projects/{id}/export.pdf", h.exportProject)

	h.mux.HandleFunc("POST /v1/projects/{id}/pages", h.addPage)
	h.mux.HandleFunc("DELETE /v1/projects/{id}/pages/{pageId}", h.deletePage)
	h.mux.HandleFunc("POST /v1/projects/{id}/pages/{pageId}/duplicate", h.duplicatePage)
	h.mux.HandleFunc("PUT /v1/projects/{id}/current-page", h.setCurrentPage)
	h.mux.HandleFunc("PUT /v1/projects/{id}/pages/{pageId}/panels/{panelId}/paths", h.savePanelDrawings)

	h.mux.HandleFunc("POST /v1/projects/{id}/publish", h.publish)
	h.mux.HandleFunc("DELETE /v1/projects/{id}/publish", h.unpublish)
	h.mux.HandleFunc("GET /v1/published/{id}", h.getPublished)

	h.mux.HandleFunc("GET /v1/projects/{id}/backups", h.listBackups)
	h.mux.HandleFunc("GET /v1/projects/{id}/backups/{version}", h.getBackup)
	h.mux.HandleFunc("POST /v1/projects/{id}/backups/{version}/restore", h.restoreBackup)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createProjectResponse struct {
	ID string `json:"id"`
}

type listProjectsResponse struct {
	Projects []*manga.Project `json:"projects"`
}

type addPageRequest struct {
	InsertAfter *int `json:"insertAfter,omitempty"`
}

type currentPageRequest struct {
	PageID string `json:"pageId"`
}

type savePathsRequest struct {
	Paths []manga.DrawingPath `json:"paths"`
}

type listBackupsResponse struct {
	Backups []service.ProjectBackup `json:"backups"`
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProjectRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, fmt.Errorf("%w: title is required", errBadRequest))
		return
	}

	id, err := h.projects.CreateProject(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createProjectResponse{ID: id})
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjects(r.Context(), r.URL.Query().Get("authorId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listProjectsResponse{Projects: projects})
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := decodeBody(r, &updates, false); err != nil {
		writeError(w, r, err)
		return
	}

	id := r.PathValue("id")
	if err := h.projects.UpdateProject(r.Context(), id, updates); err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.projects.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) exportProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	opt := export.PDFOptions{PageTitles: r.URL.Query().Get("titles") == "true"}
	if raw := r.URL.Query().Get("pages"); raw != "" {
		opt.Pages, err = parsePageList(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.ProjectPDF(&buf, project, opt); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, project.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) addPage(w http.ResponseWriter, r *http.Request) {
	var req addPageRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.projects.AddPage(r.Context(), r.PathValue("id"), req.InsertAfter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, page)
}

func (h *Handler) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.DeletePage(r.Context(), r.PathValue("id"), r.PathValue("pageId")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) duplicatePage(w http.ResponseWriter, r *http.Request) {
	page, err := h.projects.DuplicatePage(r.Context(), r.PathValue("id"), r.PathValue("pageId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, page)
}

func (h *Handler) setCurrentPage(w http.ResponseWriter, r *http.Request) {
	var req currentPageRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PageID == "" {
		writeError(w, r, fmt.Errorf("%w: pageId is required", errBadRequest))
		return
	}

	if err := h.projects.SetCurrentPage(r.Context(), r.PathValue("id"), req.PageID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) savePanelDrawings(w http.ResponseWriter, r *http.Request) {
	var req savePathsRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	for _, p := range req.Paths {
		if _, err := drawing.ParseDescriptor(p.D); err != nil {
			writeError(w, r, fmt.Errorf("path %s: %w", p.ID, err))
			return
		}
	}
	if req.Paths == nil {
		req.Paths = make([]manga.DrawingPath, 0)
	}

	err := h.projects.SavePanelDrawings(r.Context(), r.PathValue("id"), r.PathValue("pageId"), r.PathValue("panelId"), req.Paths)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	record, err := h.publication.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	if err := h.publication.Unpublish(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPublished(w http.ResponseWriter, r *http.Request) {
	record, err := h.publication.GetPublished(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.ListBackups(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listBackupsResponse{Backups: backups})
}

func (h *Handler) getBackup(w http.ResponseWriter, r *http.Request) {
	version, err := pathVersion(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.backups.GetBackup(r.Context(), r.PathValue("id"), version)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	version, err := pathVersion(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	project, err := h.backups.RestoreBackup(r.Context(), r.PathValue("id"), version)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// decodeBody reads a JSON request body into v. An empty body is accepted
// only when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		if optional {
			return nil
		}
		return fmt.Errorf("%w: empty body", errBadRequest)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}

	return nil
}

func pathVersion(r *http.Request) (int64, error) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid version %q", errBadRequest, r.PathValue("version"))
	}
	return version, nil
}

// parsePageList reads a comma separated list of page numbers.
func parsePageList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	pages := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: invalid page number %q", errBadRequest, part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
