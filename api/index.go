package handler

import (
	"context"
	"net/http"

	"github.com/arnavshah/schedule-board-api/pkg/config"
	"github.com/arnavshah/schedule-board-api/pkg/logging"
	"github.com/arnavshah/schedule-board-api/pkg/server"
	"go.uber.org/zap"
)

var app *server.App

func init() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		panic(err)
	}

	// Serverless instances are short lived: the hub runs for live sockets,
	// board eviction and usage pruning are left to the long running server.
	app, err = server.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("could not initialise", zap.Error(err))
	}
	go app.Hub.Run(context.Background())
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, r *http.Request) {
	app.Router.ServeHTTP(w, r)
}
