package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/auth"
	"github.com/arnavshah/schedule-board-api/pkg/board"
	"github.com/arnavshah/schedule-board-api/pkg/config"
	"github.com/arnavshah/schedule-board-api/pkg/database"
	"github.com/arnavshah/schedule-board-api/pkg/directory"
	"github.com/arnavshah/schedule-board-api/pkg/engine"
	"github.com/arnavshah/schedule-board-api/pkg/handlers"
	"github.com/arnavshah/schedule-board-api/pkg/hub"
	"github.com/arnavshah/schedule-board-api/pkg/projector"
	"github.com/arnavshah/schedule-board-api/pkg/tasks"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

// App is a fully wired service.
type App struct {
	Router *gin.Engine
	Hub    *hub.Hub
	Tasks  *tasks.Scheduler
	cfg    config.Config
	log    *zap.Logger
}

// New connects storage, bootstraps the admin account and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewWithDB(ctx, cfg, db, log)
}

// NewWithDB builds the service on an already migrated database.
func NewWithDB(ctx context.Context, cfg config.Config, db *gorm.DB, log *zap.Logger) (*App, error) {
	store := database.NewStore(db)

	created, err := auth.EnsureAdminExists(ctx, store, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		log.Info("default admin user created", zap.String("username", cfg.AdminUsername))
	}

	dir := directory.New(store,
		directory.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		cfg.DirectoryCacheTTL, log)
	loader := board.NewLoader(store, dir, projector.New(), engine.New(), log)
	boards := board.NewRegistry(loader.Load)
	h := hub.New(log)

	handler := &handlers.Handler{
		Store:     store,
		Directory: dir,
		Boards:    boards,
		Loader:    loader,
		Hub:       h,
		Auth:      auth.New(cfg.JWTSecret, cfg.APIMasterSecret),
		Policy:    bluemonday.StrictPolicy(),
		Log:       log,
	}

	return &App{
		Router: NewRouter(handler, cfg, log),
		Hub:    h,
		Tasks:  tasks.New(boards, store, cfg.BoardIdleTTL, cfg.UsageRetentionDays, log),
		cfg:    cfg,
		log:    log,
	}, nil
}

// Start runs the websocket hub and the maintenance jobs until ctx is done.
func (a *App) Start(ctx context.Context) error {
	go a.Hub.Run(ctx)
	return a.Tasks.Start(a.cfg.BoardEvictSpec)
}

// Stop halts the maintenance jobs.
func (a *App) Stop() {
	a.Tasks.Stop()
}

// NewRouter registers every route on a new gin engine.
func NewRouter(h *handlers.Handler, cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !allowsAll(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Schedule Board API",
			"version": version,
		})
	})

	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/templates/validate", h.ValidateTemplate)
		api.POST("/templates", h.CreateTemplate)
		api.GET("/templates", h.ListTemplates)
		api.GET("/templates/:id", h.GetTemplate)
		api.PUT("/templates/:id", h.UpdateTemplate)
		api.DELETE("/templates/:id", h.DeleteTemplate)

		api.POST("/users", h.CreateUser)
		api.GET("/users", h.ListUsers)

		api.POST("/schedules", h.CreateSchedule)
		api.GET("/schedules", h.ListSchedules)
		api.GET("/schedules/:id", h.GetSchedule)
		api.PUT("/schedules/:id", h.UpdateSchedule)

		api.GET("/schedules/:id/board", h.GetBoard)
		api.POST("/schedules/:id/board/drag", h.Drag)
		api.DELETE("/schedules/:id/board/cells/:row/:col/entries/:index", h.RemoveEntry)
		api.POST("/schedules/:id/board/reset", h.ResetBoard)
		api.GET("/schedules/:id/board/export", h.ExportBoard)
		api.GET("/schedules/:id/board/ws", h.BoardSocket)

		api.GET("/usage", h.GetMyUsage)
	}

	return r
}

func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
