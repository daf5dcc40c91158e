package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arnavshah/schedule-board-api/pkg/auth"
	"github.com/arnavshah/schedule-board-api/pkg/board"
	"github.com/arnavshah/schedule-board-api/pkg/database"
	"github.com/arnavshah/schedule-board-api/pkg/directory"
	"github.com/arnavshah/schedule-board-api/pkg/grid"
	"github.com/arnavshah/schedule-board-api/pkg/hub"
	"github.com/arnavshah/schedule-board-api/pkg/models"
	"github.com/arnavshah/schedule-board-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// context keys
const (
	ctxAPIKey   = "apiKey"
	ctxClientID = "clientID"
	ctxUsername = "username"
	ctxApplied  = "appliedDrags"
	ctxRejected = "rejectedDrags"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	Store     *database.Store
	Directory *directory.Service
	Boards    *board.Registry
	Loader    *board.Loader
	Hub       *hub.Hub
	Auth      *auth.Authenticator
	Policy    *bluemonday.Policy
	Log       *zap.Logger
}

// fail maps err onto an HTTP error response.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		response.Abort(c, http.StatusNotFound, response.CodeNotFound, "Resource not found", err.Error())
	case errors.Is(err, database.ErrTemplateInUse):
		response.Abort(c, http.StatusConflict, response.CodeConflict, "Template is still used by a schedule")
	case errors.Is(err, models.ErrInvalidTemplate):
		response.Abort(c, http.StatusBadRequest, response.CodeValidation, "Invalid template", err.Error())
	case errors.Is(err, grid.ErrInvalidContainerID):
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid container id", err.Error())
	case errors.Is(err, board.ErrRetired):
		response.Abort(c, http.StatusConflict, response.CodeConflict, "Board was reloaded, try again")
	default:
		h.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Internal server error")
	}
}

func badRequest(c *gin.Context, err error) {
	response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request body", err.Error())
}

// clean strips markup from user supplied text.
func (h *Handler) clean(s string) string {
	return strings.TrimSpace(h.Policy.Sanitize(s))
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = token[7:]
	}
	return token
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authorization header required")
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid token")
			return
		}

		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key, enforces the key's daily
// request limit and records usage once the request has been handled.
// Websocket clients may pass the key as the api_key query parameter.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			key = c.Query("api_key")
		}
		if key == "" {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "API Key required")
			return
		}

		clientID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid API Key signature")
			return
		}

		ctx := c.Request.Context()
		apiKey, err := h.Store.FindOrCreateAPIKey(ctx, key, clientID)
		if err != nil {
			h.fail(c, err)
			return
		}

		if apiKey.RateLimit > 0 {
			used, err := h.Store.RequestsToday(ctx, apiKey.ID)
			if err != nil {
				h.fail(c, err)
				return
			}
			if used >= apiKey.RateLimit {
				response.Abort(c, http.StatusTooManyRequests, response.CodeRateLimited, "Daily request limit reached")
				return
			}
		}

		c.Set(ctxAPIKey, &apiKey)
		c.Set(ctxClientID, clientID)
		c.Next()

		if err := h.Store.RecordUsage(ctx, apiKey.ID, c.GetInt(ctxApplied), c.GetInt(ctxRejected)); err != nil {
			h.Log.Warn("could not record usage", zap.Uint("key_id", apiKey.ID), zap.Error(err))
		}
	}
}

func currentKey(c *gin.Context) (*database.APIKey, bool) {
	v, ok := c.Get(ctxAPIKey)
	if !ok {
		return nil, false
	}
	key, ok := v.(*database.APIKey)
	return key, ok
}
