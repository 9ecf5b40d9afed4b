package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/cardwheel/cardwheel/internal/config"
	"github.com/cardwheel/cardwheel/internal/decksync"
	"github.com/cardwheel/cardwheel/internal/fsrs"
	"github.com/cardwheel/cardwheel/internal/review"
	"github.com/cardwheel/cardwheel/internal/storage"
	"github.com/cardwheel/cardwheel/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("cardwheel", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a yaml config file")
	syncOnly := flags.Bool("sync", false, "run one sync pass over all sources and exit")
	seedUser := flags.String("seed-params", "", "write default scheduling parameters for the given user id and exit")
	flags.String("server.listen_addr", "", "HTTP listen address")
	flags.String("storage.path", "", "path to the SQLite database file")
	flags.String("sync.repos_dir", "", "directory for git source checkouts")
	flags.String("logging.level", "", "log level (debug, info, warn, error)")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	ctx := context.Background()

	if *seedUser != "" {
		if err := db.PutParameters(ctx, *seedUser, fsrs.DefaultParameters()); err != nil {
			logger.Error("failed to seed parameters", "user_id", *seedUser, "error", err)
			os.Exit(1)
		}
		logger.Info("default parameters written", "user_id", *seedUser)
		return
	}

	syncer := decksync.NewSyncer(db, logger, cfg.Sync.ReposDir)

	if *syncOnly {
		if err := syncer.Run(ctx); err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		return
	}

	svc := review.NewService(db, fsrs.Engine{}, logger)
	server := web.NewServer(svc, db, syncer, logger)

	logger.Info("listening", "addr", cfg.Server.ListenAddr)
	if err := http.ListenAndServe(cfg.Server.ListenAddr, server); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
