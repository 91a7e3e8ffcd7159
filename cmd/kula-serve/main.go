// Command kula-serve serves the game's asset tree for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kush-Singh-26/kula-serve/internal/config"
	"github.com/Kush-Singh-26/kula-serve/internal/server"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the server and returns the process exit code: 0 on a clean
// shutdown or -h, 1 when the server cannot start.
func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	fsys, err := server.OpenRoot(cfg.Root)
	if err != nil {
		logger.Error("Cannot serve document root", "root", cfg.Root, "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg, fsys, logger).Run(ctx); err != nil {
		logger.Error("Server failed", "error", err)
		return 1
	}
	return 0
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
