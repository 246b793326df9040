package main

import (
	"context"
	"log/slog"
	"os"

	"bonarda/internal/app/server"
	"bonarda/internal/platform/config"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	app, err := server.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
