package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// sanitizeTemplate strips markup from every display string of t.
func (h *Handler) sanitizeTemplate(t models.Template) models.Template {
	t.Title = h.clean(t.Title)
	for i := range t.Areas {
		t.Areas[i].Title = h.clean(t.Areas[i].Title)
		t.Areas[i].AlternateName = h.clean(t.Areas[i].AlternateName)
	}
	for i := range t.Days {
		t.Days[i].Title = h.clean(t.Days[i].Title)
	}
	for i := range t.Sessions {
		t.Sessions[i].Title = h.clean(t.Sessions[i].Title)
	}
	return t.Normalize()
}

// bindTemplate decodes, sanitizes and validates a template body.
func (h *Handler) bindTemplate(c *gin.Context) (models.Template, bool) {
	var t models.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, err)
		return models.Template{}, false
	}
	t = h.sanitizeTemplate(t)
	if err := t.Validate(); err != nil {
		h.fail(c, err)
		return models.Template{}, false
	}
	return t, true
}

// CreateTemplate stores a new template
func (h *Handler) CreateTemplate(c *gin.Context) {
	t, ok := h.bindTemplate(c)
	if !ok {
		return
	}
	t.ID = ""
	created, err := h.Store.CreateTemplate(c.Request.Context(), t)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListTemplates returns every template
func (h *Handler) ListTemplates(c *gin.Context) {
	list, err := h.Store.ListTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

// GetTemplate returns one template
func (h *Handler) GetTemplate(c *gin.Context) {
	t, err := h.Store.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UpdateTemplate replaces a template. Live boards built from it are dropped
// so they reload against the new definition.
func (h *Handler) UpdateTemplate(c *gin.Context) {
	t, ok := h.bindTemplate(c)
	if !ok {
		return
	}
	t.ID = c.Param("id")
	updated, err := h.Store.UpdateTemplate(c.Request.Context(), t)
	if err != nil {
		h.fail(c, err)
		return
	}
	if n := h.Boards.ForgetTemplate(updated.ID); n > 0 {
		h.Log.Info("dropped boards of updated template",
			zap.String("template_id", updated.ID),
			zap.Int("count", n))
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTemplate removes a template no schedule uses
func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.Store.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ValidateTemplate checks a template without storing it
func (h *Handler) ValidateTemplate(c *gin.Context) {
	var t models.Template
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid":  false,
			"errors": []string{err.Error()},
		})
		return
	}
	t = h.sanitizeTemplate(t)

	if err := t.Validate(); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"errors": problems(err),
		})
		return
	}

	columns := 0
	blocked := 0
	for _, row := range t.TableShape {
		if len(row) > columns {
			columns = len(row)
		}
		for _, cell := range row {
			if cell.IsBlocked {
				blocked++
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"rows":          len(t.TableShape),
			"columns":       columns,
			"blocked_cells": blocked,
			"staff_count":   len(t.StaffIDs),
		},
	})
}

// problems flattens a joined validation error into its messages.
func problems(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
