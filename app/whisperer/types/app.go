package types

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/config"
	"github.com/JoodasCode/wallet-whisperer/pkg/db"
	"github.com/JoodasCode/wallet-whisperer/pkg/narrative"
	"github.com/JoodasCode/wallet-whisperer/pkg/pipeline"
)

// App holds everything the HTTP surface needs.
type App struct {
	Config       *config.Config
	Registry     *cards.Registry
	Orchestrator *pipeline.Orchestrator
	Synthesizer  *narrative.Synthesizer
	Store        *db.Store
	PromRegistry *prometheus.Registry
	Cron         *cron.Cron

	// Zap Logger
	Logger *zap.Logger
	// Server handles incoming client requests and manages HTTP routes.
	Server *http.Server
}

// Start runs the server until the context is cancelled, then shuts
// everything down in dependency order.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.Cron != nil {
		a.Cron.Stop()
	}

	_ = a.Server.Shutdown(shutdownCtx)

	a.Orchestrator.Close()

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
