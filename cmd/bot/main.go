// Package main is the entry point for the finance assistant bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/finassist/finance-assistant/internal/agent"
	"github.com/finassist/finance-assistant/internal/calendar"
	"github.com/finassist/finance-assistant/internal/config"
	"github.com/finassist/finance-assistant/internal/handler"
	"github.com/finassist/finance-assistant/internal/ledger"
	"github.com/finassist/finance-assistant/internal/llm"
	"github.com/finassist/finance-assistant/internal/store"
	"github.com/finassist/finance-assistant/internal/tools"
	"github.com/finassist/finance-assistant/internal/transport"
	"github.com/finassist/finance-assistant/pkg/logger"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	log.Info("starting finance assistant bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger backend
	sheet, err := ledger.NewGoogleSheet(ctx, cfg.ServiceAccountFile, cfg.SheetID)
	if err != nil {
		log.Error("failed to create sheets client", zap.Error(err))
		os.Exit(1)
	}
	ledgerMgr := ledger.NewManager(sheet, cfg.DefaultCurrency)

	// Calendar backend
	calBackend, err := calendar.NewGoogleBackend(ctx, cfg.ServiceAccountFile, cfg.CalendarID, cfg.CalendarTimezone)
	if err != nil {
		log.Error("failed to create calendar client", zap.Error(err))
		os.Exit(1)
	}
	calSvc, err := calendar.NewService(calBackend, cfg.CalendarTimezone)
	if err != nil {
		log.Error("failed to create calendar service", zap.Error(err))
		os.Exit(1)
	}

	// LLM client
	llmClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Tool registry: an advertised tool without a handler is a startup fault.
	registry, err := tools.New(ledgerMgr, calSvc)
	if err != nil {
		log.Error("tool registry mismatch", zap.Error(err))
		os.Exit(1)
	}

	// Conversation state
	st := store.New(cfg.MemoryFile, agent.SystemPrompt, log)
	if err := st.Load(); err != nil {
		log.Warn("starting with empty conversation memory", zap.Error(err))
	}

	engine := agent.New(st, llmClient, registry, log)

	bot, err := transport.New(cfg.TelegramToken, cfg.AuthorizedUserID, engine, st, log)
	if err != nil {
		log.Error("failed to create telegram bot", zap.Error(err))
		os.Exit(1)
	}

	// Ops HTTP server: health, readiness, metrics.
	healthHandler := handler.NewHealthHandler(func() error {
		if llmClient == nil || registry == nil {
			return errors.New("bot dependencies not wired")
		}
		return nil
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	opsServer := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("ops server listening", zap.String("port", cfg.OpsPort))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops server error", zap.Error(err))
		}
	}()

	// Blocks until the context is canceled by a signal.
	if err := bot.Run(ctx); err != nil {
		log.Error("bot stopped with error", zap.Error(err))
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server forced to shutdown", zap.Error(err))
	}

	log.Info("stopped")
}
