package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nanobananary/studio-api/internal/api"
	"github.com/nanobananary/studio-api/internal/config"
	"github.com/nanobananary/studio-api/internal/handler"
	"github.com/nanobananary/studio-api/internal/infrastructure/auth"
	"github.com/nanobananary/studio-api/internal/infrastructure/generative"
	"github.com/nanobananary/studio-api/internal/infrastructure/kafka"
	"github.com/nanobananary/studio-api/internal/infrastructure/notify"
	"github.com/nanobananary/studio-api/internal/infrastructure/redis"
	"github.com/nanobananary/studio-api/internal/infrastructure/storage"
	"github.com/nanobananary/studio-api/internal/observability"
	"github.com/nanobananary/studio-api/internal/repository"
	"github.com/nanobananary/studio-api/internal/repository/memory"
	"github.com/nanobananary/studio-api/internal/repository/postgres"
	service "github.com/nanobananary/studio-api/internal/services"
)

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewStore(db), func() {}, nil
	case "memory":
		store, err := memory.Open(cfg.MemorySnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			store.Run(runCtx, cfg.MemorySnapshotInterval)
		}()
		return store, func() { cancel(); <-done }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	// Инициализируем логи, метрики, трейсы
	shutdownTracing, metricsHandler := observability.Setup("studio-api", cfg)
	defer shutdownTracing(context.Background())

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, stopStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		stopStore()
		if err := store.Close(); err != nil {
			slog.Error("failed to close store", "storage", store.Name(), "error", err)
		}
	}()

	redisClient, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	var producer kafka.KafkaProducer = kafka.NoopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers)
	} else {
		slog.Warn("kafka brokers not configured, events will be dropped")
	}
	events := kafka.NewPublisher(producer)
	defer producer.Close()

	objectStorage, err := storage.New(cfg.S3)
	if err != nil {
		return err
	}
	images, err := generative.NewGeminiImageEditor(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	if err != nil {
		return err
	}
	videos := generative.NewVideoClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.VideoModel, cfg.Gemini.PollInterval, cfg.Gemini.PollAttempts)

	sender := notify.Router{Phone: notify.LogSender{}}
	if cfg.Mail.SendGridAPIKey != "" {
		sender.Email = notify.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromAddress, cfg.Mail.FromName)
	} else {
		sender.Email = notify.LogSender{}
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// Инициализируем сервисы
	credits := service.NewCreditService(store.Users(), store.Transactions(), redisClient, events)
	history := service.NewHistoryService(store.History())
	payments := service.NewPaymentService(store.Orders(), store.Transactions(), redisClient, events, cfg.Payment)
	generation := service.NewGenerationService(credits, history, images, videos, objectStorage, redisClient, cfg.Gemini, cfg.Credits)
	h := handler.NewHandler(handler.Services{
		Auth:       service.NewAuthService(store.Users(), redisClient, tokens, sender, events, cfg.Credits.RegistrationBonus, cfg.IsDevelopment()),
		Users:      service.NewUserService(store.Users()),
		Credits:    credits,
		Payments:   payments,
		History:    history,
		Generation: generation,
	}, store, cfg.Payment.NotifySecret)

	// Настраиваем Kafka-консьюмер уведомлений об оплате
	if len(cfg.KafkaBrokers) > 0 {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, kafka.TopicPaymentNotifications, cfg.KafkaGroupID, payments)
		go consumer.Consume(ctx)
		defer consumer.Close()
	}

	// Настраиваем роутер
	router := api.SetupRouter(h, api.RouterConfig{
		RedisClient:    redisClient,
		Tokens:         tokens,
		Metrics:        metricsHandler,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Запускаем сервер
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr, "storage", store.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	generation.Wait()
	events.Wait()
	slog.Info("server stopped")
	return nil
}
