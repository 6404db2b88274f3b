package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/api"
	"github.com/yazbekw/quizbot/internal/bot"
	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/engine"
	"github.com/yazbekw/quizbot/internal/infrastructure/config"
	"github.com/yazbekw/quizbot/internal/reminder"
	"github.com/yazbekw/quizbot/internal/store"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	catalog, err := question.LoadCatalog(cfg.QuestionsPath)
	if err != nil {
		logger.Error("failed to load question catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("question catalog loaded", "questions", catalog.Len(), "topics", len(catalog.Topics()))

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("failed to create bot API", "error", err)
		os.Exit(1)
	}

	eng := engine.New(db, catalog, logger)
	tgBot := bot.New(botAPI, eng, db, logger, cfg.AdminChatID)
	handler := api.NewHandler(db, tgBot, logger, cfg.BotToken)

	// ── Update delivery: webhook or long polling ────────────────────
	if cfg.WebhookDomain != "" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookDomain + "/webhook/" + cfg.BotToken)
		if err != nil {
			logger.Error("failed to build webhook config", "error", err)
			os.Exit(1)
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Error("failed to register webhook", "error", err)
			os.Exit(1)
		}
		logger.Info("webhook registered", "domain", cfg.WebhookDomain)
	} else {
		if _, err := botAPI.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("failed to delete stale webhook", "error", err)
		}
		go tgBot.RunPolling(ctx)
	}

	// ── Daily reminder ──────────────────────────────────────────────
	go reminder.New(db, botAPI, logger, cfg.ReminderHour).Run(ctx)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
