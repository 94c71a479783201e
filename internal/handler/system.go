package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/joinagame/internal/repository"
)

// SystemHandler serves the whole-store and liveness endpoints.
type SystemHandler struct {
	store  repository.Store
	logger *slog.Logger
}

func NewSystemHandler(store repository.Store, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{store: store, logger: logger}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleHealth handles GET /api/health. It never touches the store.
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Timestamp: time.Now().UTC()})
}

// HandleData handles GET /api/data: the whole persisted document.
func (h *SystemHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to read data snapshot", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleSports handles GET /api/sports.
func (h *SystemHandler) HandleSports(w http.ResponseWriter, r *http.Request) {
	sports, err := h.store.Sports(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sports)
}
