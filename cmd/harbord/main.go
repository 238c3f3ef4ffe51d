// harbord runs the realtime collaboration server: the websocket
// gateway plus the task, chat, and presence services behind it. The
// CRM's request/response API layer runs elsewhere and shares the same
// database.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/harborcrm/harbor/internal/access"
	"github.com/harborcrm/harbor/internal/auth"
	"github.com/harborcrm/harbor/internal/chat"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/internal/realtime"
	"github.com/harborcrm/harbor/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "harbord:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", model.DefaultConfigPath(), "path to config file")
	listenAddr := pflag.String("listen", "", "listen address (overrides config)")
	dbPath := pflag.String("db", "", "database path (overrides config)")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	evaluator := access.NewEvaluator(st)
	chatSvc := chat.NewService(st, evaluator, logger)
	resolver := auth.NewStoreResolver(st)
	manager := realtime.NewManager()
	gateway := realtime.NewGateway(resolver, evaluator, chatSvc, manager, logger, realtime.Config{
		PingInterval:   cfg.PingInterval(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

// newLogger builds the process logger from config.
func newLogger(cfg model.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
