package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnavshah/schedule-board-api/pkg/config"
	"github.com/arnavshah/schedule-board-api/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig() config.Config {
	return config.Config{
		GinMode:            gin.TestMode,
		JWTSecret:          "jwt",
		APIMasterSecret:    "master",
		AdminUsername:      "admin",
		AdminPassword:      "pw",
		DirectoryCacheTTL:  time.Minute,
		BoardIdleTTL:       time.Minute,
		BoardEvictSpec:     "@every 1h",
		UsageRetentionDays: 30,
		CORSOrigins:        []string{"*"},
	}
}

func TestNewWithDB_ServesRoutes(t *testing.T) {
	db, err := database.Open("", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	core, logs := observer.New(zapcore.InfoLevel)
	app, err := NewWithDB(context.Background(), testConfig(), db, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("default admin user created").Len())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() {
		cancel()
		app.Stop()
	})

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/schedules", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, 1, logs.FilterField(zap.Int("status", http.StatusUnauthorized)).Len())
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}
