package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"rupaiya/internal/assistant"
	"rupaiya/internal/auth"
	"rupaiya/internal/cli"
	apphttp "rupaiya/internal/http"
	"rupaiya/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	rt, err := cli.NewRuntime(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize runtime", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Runtime cleanup failed", "error", err)
		}
	}()

	chat := assistant.New(assistant.Config{
		APIKey:  cfg.ChatAPIKey,
		BaseURL: cfg.ChatBaseURL,
		Model:   cfg.ChatModel,
	}, logger.Slog())

	authManager := auth.New(auth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		SessionTTL:   cfg.SessionTTL,
		SecureCookie: strings.HasPrefix(cfg.GoogleRedirectURL, "https://"),
	}, logger.Slog())
	for _, c := range authManager.Caches() {
		rt.Caches.Register(c)
	}
	rt.Caches.StartCleanup(time.Minute)

	deps := apphttp.Deps{
		Ledger: rt.Ledger,
		Source: rt.Source,
		Auth:   authManager,
		Logger: logger.WithComponent(log.ComponentHTTP),
	}
	if chat.Configured() {
		deps.Assistant = chat
	} else {
		logger.Info("Chat assistant disabled - no CHAT_API_KEY provided")
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:       ":" + cfg.Port,
		CORSOrigin: cfg.CORSOrigin,
	}, deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting rupaiya server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"import_source", cfg.ImportSource,
			"auth", authManager.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		return
	}
	logger.Info("Server stopped gracefully")
}
