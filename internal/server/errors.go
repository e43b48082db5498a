package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/manga/internal/drawing"
	"github.com/emrgen/manga/internal/manga"
	"github.com/emrgen/manga/internal/service"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrNotPublished),
		errors.Is(err, service.ErrBackupNotFound),
		errors.Is(err, manga.ErrPageNotFound),
		errors.Is(err, manga.ErrPanelNotFound):
		return http.StatusNotFound
	case errors.Is(err, manga.ErrLastPage):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrInvalidProject),
		errors.Is(err, manga.ErrInvalidDocument),
		errors.Is(err, manga.ErrInvalidPageNumber),
		errors.Is(err, drawing.ErrInvalidDescriptor):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrBackupsUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		logrus.Debugf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("error writing response: %v", err)
	}
}
