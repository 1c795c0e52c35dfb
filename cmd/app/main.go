// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-event-bot/internal/application"
	"telegram-event-bot/internal/config"
	"telegram-event-bot/internal/domain/ports/adapter"
	aiAdapters "telegram-event-bot/internal/infra/adapters/ai"
	tele "telegram-event-bot/internal/infra/adapters/telegram"
	pg "telegram-event-bot/internal/infra/db/postgres"
	"telegram-event-bot/internal/infra/i18n"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/infra/metrics"
	red "telegram-event-bot/internal/infra/redis"
	"telegram-event-bot/internal/infra/sched"
	"telegram-event-bot/internal/infra/security"
	"telegram-event-bot/internal/infra/timeparse"
	"telegram-event-bot/internal/infra/web"
	"telegram-event-bot/internal/infra/worker"
	"telegram-event-bot/internal/usecase"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolMetrics(ctx, pool, 15*time.Second)
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	stateRepo := red.NewStateRepo(redisClient)

	// ---- Encryption ----
	var encSvc *security.EncryptionService
	if key := cfg.Security.EncryptionKey; key != "" {
		encSvc, err = security.NewEncryptionService(key)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
	} else {
		logger.Warn().Msg("security.encryption_key not set; event source text is stored in plaintext")
	}

	// ---- Repositories (cached) ----
	userRepo := pg.NewUserRepoCacheDecorator(pg.NewPostgresUserRepo(pool), redisClient)
	eventRepo := pg.NewEventRepoCacheDecorator(pg.NewPostgresEventRepo(pool), redisClient)

	// ---- AI ----
	ai := buildAIAdapter(ctx, cfg, logger)

	// ---- Parsing + i18n ----
	resolver := timeparse.NewResolver()
	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, eventRepo, stateRepo, tm, logger)
	eventUC := usecase.NewEventUseCase(eventRepo, ai, resolver, encSvc, tm, &cfg.AI, &cfg.Events, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, eventRepo, logger)

	// ---- Facade + Telegram ----
	facade := application.NewBotFacade(userUC, eventUC, nil, statsUC)

	updatePool := worker.NewPool(cfg.Bot.Workers, logger)

	// LoadConfig only allows an empty token in dev mode; delivery is then
	// logged instead of sent and no updates are consumed.
	var bot adapter.TelegramBotAdapter
	var botAdapter *tele.RealTelegramBotAdapter
	if cfg.Bot.Token == "" {
		logger.Warn().Msg("bot.token not set; outgoing Telegram traffic is logged only")
		bot = tele.NewNoopBotAdapter(logger)
	} else {
		botAdapter, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, &cfg.Events, facade, translator, rateLimiter, updatePool, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		bot = botAdapter
	}

	// The reminder path needs the bot for delivery, so it is wired after the
	// adapter exists.
	reminderUC := usecase.NewReminderUseCase(eventRepo, userRepo, bot, tm, translator, cfg.Events.DefaultTimezone, logger)
	facade.ReminderUC = reminderUC

	// ---- HTTP server: webhook + healthz + metrics + admin API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SecureCookies, cfg.Admin.CookieDomain, cfg.Admin.SessionTTL)
	webSrv := web.NewServer(statsUC, userUC, eventUC, ai, &cfg.Admin, auth, logger)

	webhookMode := strings.EqualFold(cfg.Bot.Mode, "webhook") && botAdapter != nil
	if webhookMode {
		webSrv.MountWebhook(botAdapter.WebhookPath(), botAdapter.WebhookHandler())
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Bot.Port),
		Handler:           webSrv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Update intake ----
	updatePool.Start(ctx)
	switch {
	case webhookMode:
		if err := botAdapter.StartWebhook(ctx); err != nil {
			logger.Fatal().Err(err).Msg("webhook registration")
		}
	case botAdapter != nil:
		go func() {
			if err := botAdapter.StartPolling(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- Background workers ----
	go func() {
		_ = sched.NewReminderWorker(cfg.Scheduler.ReminderInterval, reminderUC, locker, logger).Run(ctx)
	}()
	go func() {
		_ = sched.NewCleanupWorker(cfg.Scheduler.CleanupInterval, eventUC, logger).Run(ctx)
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	switch {
	case webhookMode:
		botAdapter.StopWebhook()
	case botAdapter != nil:
		botAdapter.StopPolling()
	}
	cancel()
	updatePool.Stop()
	logger.Info().Msg("bye")
}

// buildAIAdapter assembles Gemini and OpenAI behind the multi-adapter so a
// failed extraction on the default model retries once on the fallback. The
// whole stack sits behind a concurrency limiter.
func buildAIAdapter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.AIServiceAdapter {
	byProvider := map[string]adapter.AIServiceAdapter{}

	if cfg.AI.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = g
	}
	if cfg.AI.OpenAIKey != "" {
		o, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIURL, cfg.AI.FallbackModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider["openai"] = o
	}

	if len(byProvider) == 0 {
		// LoadConfig only lets this through in dev mode.
		logger.Warn().Msg("no AI provider configured; using canned extraction responses")
		return aiAdapters.NewNoopAIAdapter()
	}

	defaultProvider := aiAdapters.ProviderForModel(cfg.AI.DefaultModel, "gemini")
	multi := aiAdapters.NewMultiAIAdapter(defaultProvider, byProvider, nil, cfg.AI.FallbackModel)
	return aiAdapters.NewLimitedAI(multi, cfg.AI.ConcurrentLimit)
}
