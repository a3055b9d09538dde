package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prashantforsure/BeFriend/internal/ai"
	"github.com/prashantforsure/BeFriend/internal/auth"
	"github.com/prashantforsure/BeFriend/internal/calls"
	"github.com/prashantforsure/BeFriend/internal/config"
	"github.com/prashantforsure/BeFriend/internal/conversations"
	"github.com/prashantforsure/BeFriend/internal/credits"
	"github.com/prashantforsure/BeFriend/internal/personas"
	"github.com/prashantforsure/BeFriend/internal/telephony"
	"github.com/prashantforsure/BeFriend/internal/turns"
	"github.com/prashantforsure/BeFriend/internal/users"
	"github.com/prashantforsure/BeFriend/internal/voices"
	"github.com/prashantforsure/BeFriend/pkg/logger"
	"github.com/prashantforsure/BeFriend/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Provider clients.
	twilio, err := telephony.NewTwilioProvider(cfg.Twilio)
	if err != nil {
		log.Error("twilio init failed", "err", err)
		os.Exit(1)
	}
	openAI, err := ai.NewOpenAIClient(cfg.AI)
	if err != nil {
		log.Error("openai init failed", "err", err)
		os.Exit(1)
	}
	elevenLabs, err := ai.NewElevenLabsClient(cfg.AI)
	if err != nil {
		log.Error("elevenlabs init failed", "err", err)
		os.Exit(1)
	}
	audioStore, err := ai.NewLocalAudioStore(cfg.App.AudioDir, cfg.AudioBaseURL())
	if err != nil {
		log.Error("audio store init failed", "err", err)
		os.Exit(1)
	}

	// Repositories and domain services.
	userRepo := users.NewPostgresRepo(db)
	personaRepo := personas.NewPostgresRepo(db)
	convStore := conversations.NewStore(conversations.NewPostgresRepo(db))
	voiceResolver := voices.NewResolver(voices.NewPostgresRepo(db), userRepo)
	guard := credits.NewGuard(userRepo)

	callManager := calls.NewManager(
		calls.ManagerConfig{
			FromNumber:        cfg.Twilio.VoiceNumber,
			VoiceURL:          cfg.VoiceCallbackURL(),
			StatusCallbackURL: cfg.StatusCallbackURL(),
			TriggerPhrase:     cfg.Calls.TriggerPhrase,
		},
		userRepo,
		personaRepo,
		convStore,
		guard,
		calls.NewPostgresRepo(db),
		twilio,
		calls.NewRedisLimiter(rdb, cfg.Calls.MaxConcurrentPerUser, calls.DefaultSlotTTL),
		log,
	)

	pipeline := turns.NewPipeline(
		convStore,
		personaRepo,
		userRepo,
		guard,
		voiceResolver,
		openAI,
		openAI,
		elevenLabs,
		audioStore,
		cfg.Calls.HistoryWindow,
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:         cfg,
		db:          db,
		authMW:      auth.RequireAccessToken(authManager),
		callHandler: calls.Handler{
			Manager:            callManager,
			Personas:           personaRepo,
			TwilioAuthToken:    cfg.Twilio.AuthToken,
			WhatsAppWebhookURL: cfg.WhatsAppWebhookURL(),
			StatusCallbackURL:  cfg.StatusCallbackURL(),
			VoiceURL:           cfg.VoiceCallbackURL(),
		},
		turnHandler: turns.Handler{Pipeline: pipeline},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
