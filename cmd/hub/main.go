package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"synapsesync/internal/app"
	"synapsesync/internal/config"
	"synapsesync/internal/identity"
	"synapsesync/internal/ratelimit"
	"synapsesync/internal/server"
	"synapsesync/internal/util"
	"synapsesync/pkg/ai"
	"synapsesync/pkg/cache"
	"synapsesync/pkg/events"
	"synapsesync/pkg/profile"
	"synapsesync/pkg/storage"
	"synapsesync/pkg/store"
	"synapsesync/pkg/syncer"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	index, err := store.NewGormIndex(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init metadata index: %v", err)
	}
	blobs, err := storage.NewMinioBlobStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init blob store: %v", err)
	}

	gateway, err := syncer.New(syncer.Config{
		Index:        index,
		Blobs:        blobs,
		Cache:        cache.New(cfg.RedisAddr, cfg.RedisPassword),
		ReadTimeout:  time.Duration(cfg.SyncReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.SyncWriteTimeoutSec) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to init sync gateway: %v", err)
	}

	var assistant *ai.Assistant
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("failed to init gemini client: %v", err)
		}
		assistant = ai.NewAssistant(gemini)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to init event publisher: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	appCore, err := app.New(app.Config{
		Gateway:   gateway,
		Profiles:  profile.NewManager(gateway),
		Assistant: assistant,
		Events:    publisher,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	verifier, err := identity.NewVerifier(cfg.IdentitySecret)
	if err != nil {
		log.Fatalf("failed to init identity verifier: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.RateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Identity:       verifier,
		Limiter:        limiter,
		TrustedProxies: trusted,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("hub server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
