package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devroom/devroom/internal/ai"
	"github.com/devroom/devroom/internal/auth"
	"github.com/devroom/devroom/internal/config"
	"github.com/devroom/devroom/internal/domain/filetree"
	"github.com/devroom/devroom/internal/domain/message"
	"github.com/devroom/devroom/internal/domain/project"
	"github.com/devroom/devroom/internal/domain/user"
	"github.com/devroom/devroom/internal/realtime"
	"github.com/devroom/devroom/internal/room"
	"github.com/devroom/devroom/internal/sqlite"
	"github.com/devroom/devroom/internal/transport"
	"github.com/devroom/devroom/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if cfg.Auth.Secret == "" {
		logger.Error("DEVROOM_AUTH_SECRET is required")
		os.Exit(1)
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runEmbeddedMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := sqlite.NewUserRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)
	treeRepo := sqlite.NewFileTreeRepository(db)

	userSvc := user.NewService(userRepo, logger)
	projectSvc := project.NewService(projectRepo, logger)
	messageSvc := message.NewService(messageRepo, logger)
	treeSvc := filetree.NewService(treeRepo, logger)

	tokens := auth.NewTokenManager(cfg.Auth.Secret)
	go revocationCleanupLoop(tokens)

	generator := ai.NewGeminiProvider(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model)
	adapter := ai.NewAdapter(generator, logger)

	hub := room.NewHub()
	orch := realtime.NewOrchestrator(messageSvc, treeSvc, hub, adapter, logger)
	rtServer := realtime.NewServer(projectSvc, tokens, hub, orch, logger, cfg.Server.AllowedOrigins)

	router := transport.NewRouter(transport.Services{
		Users:    userSvc,
		Projects: projectSvc,
		Messages: messageSvc,
		Trees:    treeSvc,
	}, auth.Middleware(tokens), rtServer.HandleWS, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer, orch)
}

func runEmbeddedMigrations(db *sqlite.DB) error {
	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func revocationCleanupLoop(tokens *auth.TokenManager) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		tokens.CleanupRevoked()
	}
}

func waitForShutdown(logger *slog.Logger, server *http.Server, orch *realtime.Orchestrator) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	// Let in-flight AI turns finish persisting before the process exits.
	orch.Wait()
}

func parseLogLevel(level string) slog.Level {
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
