package http

import (
	"io/fs"
	"log/slog"
	"net/http"
)

// IndexHandler serves the single dashboard page from an embedded filesystem
type IndexHandler struct {
	page   []byte
	logger *slog.Logger
}

// NewIndexHandler reads name from assets once at startup
func NewIndexHandler(assets fs.FS, name string, logger *slog.Logger) (*IndexHandler, error) {
	page, err := fs.ReadFile(assets, name)
	if err != nil {
		return nil, err
	}
	return &IndexHandler{
		page:   page,
		logger: logger.With(slog.String("component", "index_handler")),
	}, nil
}

// ServeHTTP handles GET /
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		h.logger.DebugContext(r.Context(), "index write failed", slog.String("error", err.Error()))
	}
}
