package handlers

import (
	"net/http"

	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/arnavshah/schedule-board-api/pkg/response"
	"github.com/gin-gonic/gin"
)

// CreateUser adds a staff member to the directory
func (h *Handler) CreateUser(c *gin.Context) {
	var u models.User
	if err := c.ShouldBindJSON(&u); err != nil {
		badRequest(c, err)
		return
	}
	u.Name.First = h.clean(u.Name.First)
	u.Name.Last = h.clean(u.Name.Last)
	u.Class = h.clean(u.Class)
	if u.Name.Full() == "" {
		response.Abort(c, http.StatusBadRequest, response.CodeValidation, "name is required")
		return
	}

	created, err := h.Directory.Create(c.Request.Context(), u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListUsers returns the staff directory
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Directory.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
