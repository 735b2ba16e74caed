// Package main provides the entry point for the narrative graph API server
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Cloutiere/mermaid/domain/graphs"
	"github.com/Cloutiere/mermaid/domain/health"
	"github.com/Cloutiere/mermaid/domain/projects"
	"github.com/Cloutiere/mermaid/internal/config"
	"github.com/Cloutiere/mermaid/internal/database"
	"github.com/Cloutiere/mermaid/internal/migrate"
	"github.com/Cloutiere/mermaid/internal/server"
	"github.com/Cloutiere/mermaid/pkg/logger"
	"github.com/Cloutiere/mermaid/pkg/tracing"
)

func main() {
	// .env.local overrides .env; Load() never overwrites existing vars
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	fx.New(
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log}
		}),

		// Infrastructure modules
		logger.Module,
		config.Module,
		database.Module,
		migrate.Module,
		tracing.Module,
		server.Module,

		// Domain modules
		health.Module,
		projects.Module,
		graphs.Module,
	).Run()
}
