// Package handlers provides HTTP handlers for chart data.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/ratechart/internal/modules/charts"
	"github.com/aristath/ratechart/internal/modules/layout"
	"github.com/aristath/ratechart/internal/modules/render"
	"github.com/aristath/ratechart/internal/utils"
)

// Default frame size when the query omits it
const (
	DefaultWidth  = 960
	DefaultHeight = 500
)

// MsgpackContentType is accepted for binary series responses
const MsgpackContentType = "application/msgpack"

// Handler provides HTTP handlers for chart endpoints
type Handler struct {
	service *charts.Service
	log     zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(service *charts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetFrame handles GET /api/charts/frame
func (h *Handler) HandleGetFrame(w http.ResponseWriter, r *http.Request) {
	size, ok := h.parseSize(w, r)
	if !ok {
		return
	}

	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.service.Frame(r.Context(), size, format)
	if err != nil {
		h.writeServiceError(w, err, "Failed to render chart frame")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write frame response")
	}
}

// HandleGetSeries handles GET /api/charts/series
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	ids := utils.ParseCSV(r.URL.Query().Get("series"))

	data, err := h.service.Series(ids)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get series data")
		return
	}

	if strings.Contains(r.Header.Get("Accept"), MsgpackContentType) {
		w.Header().Set("Content-Type", MsgpackContentType)
		if err := msgpack.NewEncoder(w).Encode(data); err != nil {
			h.log.Error().Err(err).Msg("Failed to encode series response")
		}
		return
	}

	h.writeJSON(w, data)
}

// HandleGetLayout handles GET /api/charts/layout
func (h *Handler) HandleGetLayout(w http.ResponseWriter, r *http.Request) {
	size, ok := h.parseSize(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, h.service.Layout(size))
}

// HandleGetSummary handles GET /api/charts/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summary()
	if err != nil {
		h.writeServiceError(w, err, "Failed to summarize series")
		return
	}
	h.writeJSON(w, summaries)
}

// HandleReload handles POST /api/charts/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reload(r.Context()); err != nil {
		h.log.Error().Err(err).Str("source", h.service.Source()).Msg("Manual reload failed")
		http.Error(w, "Failed to reload dataset: "+err.Error(), http.StatusBadGateway)
		return
	}

	info, err := h.service.Info()
	if err != nil {
		h.writeServiceError(w, err, "Failed to describe dataset")
		return
	}
	h.writeJSON(w, info)
}

func (h *Handler) parseSize(w http.ResponseWriter, r *http.Request) (layout.Size, bool) {
	q := r.URL.Query()

	width, err := utils.ParseIntOr(q.Get("width"), DefaultWidth)
	if err != nil {
		http.Error(w, "width: "+err.Error(), http.StatusBadRequest)
		return layout.Size{}, false
	}
	height, err := utils.ParseIntOr(q.Get("height"), DefaultHeight)
	if err != nil {
		http.Error(w, "height: "+err.Error(), http.StatusBadRequest)
		return layout.Size{}, false
	}
	return layout.Size{Width: width, Height: height}, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, charts.ErrNoSession):
		http.Error(w, "No dataset loaded", http.StatusServiceUnavailable)
	case errors.Is(err, render.ErrInvalidSize), errors.Is(err, render.ErrTooLarge):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
