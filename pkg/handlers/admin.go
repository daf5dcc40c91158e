package handlers

import (
	"net/http"
	"strconv"

	"github.com/arnavshah/schedule-board-api/pkg/auth"
	"github.com/arnavshah/schedule-board-api/pkg/database"
	"github.com/arnavshah/schedule-board-api/pkg/response"
	"github.com/gin-gonic/gin"
)

const defaultRateLimit = 10000

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Store.FindMasterUser(c.Request.Context(), req.Username)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey issues a new HMAC API key
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		RateLimit int    `json:"rate_limit" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = defaultRateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey, err := h.Store.CreateAPIKey(c.Request.Context(), key, req.Name, req.RateLimit)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": apiKey.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	keys, err := h.Store.ListAPIKeys(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteAPIKey(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.MessageResponse{Message: "Key revoked"})
}

// UpdateKeyLimit updates the daily request limit of a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}
	// Try JSON first, then query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.RateLimit <= 0 {
		response.Abort(c, http.StatusBadRequest, response.CodeValidation, "rate_limit must be positive")
		return
	}

	if err := h.Store.UpdateKeyLimit(c.Request.Context(), id, req.RateLimit); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.MessageResponse{Message: "Rate limit updated successfully"})
}

// GetUsage returns the last 30 days of usage for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id, ok := keyID(c)
	if !ok {
		return
	}
	usage, err := h.Store.UsageFor(c.Request.Context(), id, 30)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// GetMyUsage returns usage stats for the calling API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := currentKey(c)
	if !ok {
		response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "API Key context missing")
		return
	}

	usage, err := h.Store.UsageFor(c.Request.Context(), apiKey.ID, 30)
	if err != nil {
		h.fail(c, err)
		return
	}

	var totalRequests, totalApplied, totalRejected int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalApplied += int64(u.AppliedDrags)
		totalRejected += int64(u.RejectedDrags)
	}

	if usage == nil {
		usage = []database.APIUsage{}
	}
	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":       totalRequests,
			"applied_drags":  totalApplied,
			"rejected_drags": totalRejected,
		},
	})
}

func keyID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid key id")
		return 0, false
	}
	return uint(id), true
}
