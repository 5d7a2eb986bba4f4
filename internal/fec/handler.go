package fec

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler streams the regulatory export over HTTP.
type Handler struct {
	exporter *Exporter
	logger   *slog.Logger
}

func NewHandler(logger *slog.Logger, exporter *Exporter) *Handler {
	return &Handler{exporter: exporter, logger: logger}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Export)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		http.Error(w, "fec: from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		http.Error(w, "fec: to must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := h.exporter.WriteRange(r.Context(), w, from, to); err != nil {
		h.logger.Error("write regulatory export", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
