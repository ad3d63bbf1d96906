package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tropicaldog17/folio/internal/logger"
	"github.com/tropicaldog17/folio/internal/models"
	"github.com/tropicaldog17/folio/internal/services"
)

const sseKeepAlive = 30 * time.Second

type ProjectHandler struct {
	store StoreClient
	stats services.ProjectStatsService
	log   *zap.Logger
}

func NewProjectHandler(store StoreClient, stats services.ProjectStatsService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, stats: stats, log: logger.OrNop(log)}
}

// HandleListProjects handles GET /api/projects
// @Summary List projects
// @Description Signed-in user's projects, newest first; empty when signed out
// @Tags projects
// @Produce json
// @Success 200 {array} models.Project
// @Router /projects [get]
func (h *ProjectHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// HandleCreateProject handles POST /api/projects
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body models.Project true "Title and URL"
// @Success 201 {object} models.Project
// @Failure 400 {string} string "Bad request"
// @Failure 401 {string} string "Authentication required"
// @Router /projects [post]
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p models.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.store.CreateProject(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdateProject handles PUT /api/projects/{id}
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param patch body models.ProjectPatch true "Fields to change"
// @Success 200 {object} models.Project
// @Failure 404 {string} string "Not found"
// @Router /projects/{id} [put]
func (h *ProjectHandler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var patch models.ProjectPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.store.UpdateProject(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteProject handles DELETE /api/projects/{id}
// @Summary Delete project
// @Tags projects
// @Param id path string true "Project ID"
// @Success 204
// @Failure 404 {string} string "Not found"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /api/projects/stats
// @Summary Project statistics
// @Tags projects
// @Produce json
// @Param refresh query bool false "Recompute instead of returning the cached result"
// @Success 200 {object} models.ProjectStats
// @Router /projects/stats [get]
func (h *ProjectHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.stats.Snapshot()
	if !ok || r.URL.Query().Get("refresh") == "true" {
		stats = h.stats.Refresh(r.Context())
	}
	writeJSON(w, http.StatusOK, stats)
}

type projectEvent struct {
	Type    models.ChangeEvent `json:"type"`
	Project models.Project     `json:"project"`
}

// HandleEvents handles GET /api/projects/events as a server-sent event stream of
// the signed-in user's project changes.
// @Summary Project change stream
// @Tags projects
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Failure 401 {string} string "Authentication required"
// @Router /projects/events [get]
func (h *ProjectHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	events := make(chan projectEvent, 16)
	dispose, err := h.store.SubscribeToProjectChanges(ctx, func(event models.ChangeEvent, p models.Project) error {
		select {
		case events <- projectEvent{Type: event, Project: p}:
			return nil
		default:
			return fmt.Errorf("event stream for project %s is not keeping up", p.ID)
		}
	})
	if err != nil {
		writeError(w, err)
		return
	}
	defer dispose()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Warn("failed to encode project event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", strings.ToLower(string(ev.Type)), data)
			flusher.Flush()
			h.stats.Refresh(ctx)
		}
	}
}
