package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/statusdeck/statusdeck-backend/internal/http/response"
	pkgerr "github.com/statusdeck/statusdeck-backend/internal/pkg/errors"
	"github.com/statusdeck/statusdeck-backend/internal/platform/logger"
	"github.com/statusdeck/statusdeck-backend/internal/services"
)

const workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SnapshotHandler struct {
	log       *logger.Logger
	snapshots *services.SnapshotService
}

func NewSnapshotHandler(log *logger.Logger, snapshots *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{
		log:       log.With("handler", "SnapshotHandler"),
		snapshots: snapshots,
	}
}

// GET /api/snapshots/current
//
// Serves the live dashboard view. The view-model content hash doubles as an
// ETag so unchanged dashboards answer 304.
func (h *SnapshotHandler) GetCurrent(c *gin.Context) {
	stored, etag, err := h.snapshots.Current(c.Request.Context())
	if err != nil {
		h.log.Error("GetCurrent failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_current_failed", err)
		return
	}
	if stored == nil {
		response.RespondError(c, http.StatusNotFound, "no_snapshot", nil)
		return
	}
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	response.RespondOK(c, gin.H{
		"id":         stored.ID,
		"created_at": stored.CreatedAt,
		"domain":     stored.Domain,
		"view":       stored.View,
	})
}

// GET /api/snapshots/:id
func (h *SnapshotHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_snapshot_id", err)
		return
	}
	stored, err := h.snapshots.ByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "snapshot_not_found", err)
			return
		}
		h.log.Error("GetByID failed", "error", err, "snapshot_id", id)
		response.RespondError(c, http.StatusInternalServerError, "load_snapshot_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":         stored.ID,
		"created_at": stored.CreatedAt,
		"actor":      stored.Actor,
		"notes":      stored.Notes,
		"domain":     stored.Domain,
		"view":       stored.View,
	})
}

// GET /api/snapshots?limit=20
func (h *SnapshotHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := h.snapshots.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("List failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_snapshots_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"snapshots": entries})
}

// GET /api/snapshots/:id/diff/:other
func (h *SnapshotHandler) Diff(c *gin.Context) {
	fromID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_snapshot_id", err)
		return
	}
	toID, err := uuid.Parse(c.Param("other"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_snapshot_id", err)
		return
	}
	diff, err := h.snapshots.Diff(c.Request.Context(), fromID, toID)
	if err != nil {
		if errors.Is(err, pkgerr.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "snapshot_not_found", err)
			return
		}
		h.log.Error("Diff failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "diff_failed", err)
		return
	}
	response.RespondOK(c, diff)
}

// POST /api/snapshots/:id/rollback
func (h *SnapshotHandler) Rollback(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_snapshot_id", err)
		return
	}
	ok, err := h.snapshots.Rollback(c.Request.Context(), id, c.GetHeader("X-Actor"))
	if err != nil {
		h.log.Error("Rollback failed", "error", err, "snapshot_id", id)
		response.RespondError(c, http.StatusInternalServerError, "rollback_failed", err)
		return
	}
	if !ok {
		response.RespondError(c, http.StatusNotFound, "snapshot_not_found", nil)
		return
	}
	response.RespondOK(c, gin.H{"rolled_back_to": id})
}

// POST /api/snapshots/prune?keep=10
func (h *SnapshotHandler) Prune(c *gin.Context) {
	keep, err := strconv.Atoi(c.DefaultQuery("keep", "10"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_keep", err)
		return
	}
	deleted, err := h.snapshots.Prune(c.Request.Context(), keep, c.GetHeader("X-Actor"))
	if err != nil {
		if errors.Is(err, pkgerr.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_keep", err)
			return
		}
		h.log.Error("Prune failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "prune_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted, "kept": keep})
}

// GET /api/snapshots/history
func (h *SnapshotHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.snapshots.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("History failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// GET /api/template
func (h *SnapshotHandler) Template(c *gin.Context) {
	raw, err := h.snapshots.Template(c.Request.Context())
	if err != nil {
		h.log.Error("Template failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "template_failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="portfolio-status-template.xlsx"`)
	c.Data(http.StatusOK, workbookContentType, raw)
}
