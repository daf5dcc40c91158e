package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/board"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/arnavshah/schedule-board-api/pkg/projector"
	"github.com/arnavshah/schedule-board-api/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type scheduleRequest struct {
	Title         string     `json:"title" binding:"required"`
	AlternateName string     `json:"alternateName"`
	TemplateID    string     `json:"templateId" binding:"required"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
}

func (h *Handler) bindSchedule(c *gin.Context) (models.Schedule, bool) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return models.Schedule{}, false
	}
	s := models.Schedule{
		Title:         h.clean(req.Title),
		AlternateName: h.clean(req.AlternateName),
		TemplateID:    req.TemplateID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	if s.Title == "" {
		response.Abort(c, http.StatusBadRequest, response.CodeValidation, "title is required")
		return models.Schedule{}, false
	}
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		response.Abort(c, http.StatusBadRequest, response.CodeValidation, "endDate is before startDate")
		return models.Schedule{}, false
	}
	return s, true
}

// CreateSchedule creates a schedule with the empty grid of its template
func (h *Handler) CreateSchedule(c *gin.Context) {
	s, ok := h.bindSchedule(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	t, err := h.Store.GetTemplate(ctx, s.TemplateID)
	if err != nil {
		h.fail(c, err)
		return
	}
	s.Grid = projector.Grid(t)

	created, err := h.Store.CreateSchedule(ctx, s)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListSchedules returns every schedule
func (h *Handler) ListSchedules(c *gin.Context) {
	list, err := h.Store.ListSchedules(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": list})
}

// GetSchedule returns one schedule with its stored grid
func (h *Handler) GetSchedule(c *gin.Context) {
	s, err := h.Store.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSchedule edits a schedule. Switching to another template resets the
// board to that template's empty grid and roster.
func (h *Handler) UpdateSchedule(c *gin.Context) {
	s, ok := h.bindSchedule(c)
	if !ok {
		return
	}
	s.ID = c.Param("id")
	ctx := c.Request.Context()

	current, err := h.Store.GetSchedule(ctx, s.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	switched := current.TemplateID != s.TemplateID
	if switched {
		if _, err := h.Store.GetTemplate(ctx, s.TemplateID); err != nil {
			h.fail(c, err)
			return
		}
	}

	updated, err := h.Store.UpdateScheduleDetails(ctx, s)
	if err != nil {
		h.fail(c, err)
		return
	}
	if switched {
		if _, err := h.resetBoard(ctx, s.ID); err != nil {
			h.fail(c, err)
			return
		}
		if updated, err = h.Store.GetSchedule(ctx, s.ID); err != nil {
			h.fail(c, err)
			return
		}
		h.Log.Info("schedule switched template",
			zap.String("schedule_id", s.ID),
			zap.String("template_id", s.TemplateID))
	}
	c.JSON(http.StatusOK, updated)
}

// resetBoard reprojects a schedule's board from its current template and
// broadcasts the result.
func (h *Handler) resetBoard(ctx context.Context, scheduleID string) (board.Snapshot, error) {
	s, err := h.Store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return board.Snapshot{}, err
	}
	t, err := h.Store.GetTemplate(ctx, s.TemplateID)
	if err != nil {
		return board.Snapshot{}, err
	}
	proj, err := h.Loader.Project(ctx, t)
	if err != nil {
		return board.Snapshot{}, err
	}
	var snap board.Snapshot
	err = h.withBoard(ctx, scheduleID, func(b *board.Board) (err error) {
		snap, err = b.Reset(t, proj, h.commit(ctx, scheduleID), h.publish(eventReset))
		return err
	})
	if err != nil {
		return board.Snapshot{}, err
	}
	return snap, nil
}
