package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/runbridge/runbridge/internal/admin"
	"github.com/runbridge/runbridge/internal/assistant"
	"github.com/runbridge/runbridge/internal/channel"
	"github.com/runbridge/runbridge/internal/channel/adapters/discord"
	"github.com/runbridge/runbridge/internal/channel/adapters/telegram"
	"github.com/runbridge/runbridge/internal/config"
	"github.com/runbridge/runbridge/internal/handlers"
	"github.com/runbridge/runbridge/internal/logger"
	"github.com/runbridge/runbridge/internal/orchestrator"
	"github.com/runbridge/runbridge/internal/server"
	"github.com/runbridge/runbridge/internal/thread"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideAssistant,
			provideStore,
			provideOrchestrator,
			provideAdminService,
			handlers.NewPingHandler,
			provideAuthHandler,
			provideFilesHandler,
			provideServer,
		),
		fx.Invoke(
			startDiscord,
			startTelegram,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	return logger.L
}

func provideAssistant(log *slog.Logger, cfg config.Config) (assistant.Service, error) {
	client, err := assistant.NewClient(log,
		cfg.Assistant.APIKey,
		cfg.Assistant.AssistantID,
		cfg.Assistant.Model,
		cfg.Assistant.BaseURL,
	)
	if err != nil {
		return nil, fmt.Errorf("assistant client: %w", err)
	}
	return client, nil
}

func provideStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (thread.Store, error) {
	if !cfg.Postgres.Enabled() {
		log.Info("using in-memory conversation mapping store")
		return thread.NewMemoryStore(), nil
	}

	dsn := cfg.Postgres.DSN()
	if err := thread.Migrate(dsn); err != nil {
		return nil, fmt.Errorf("migrate mapping store: %w", err)
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return pool.Ping(ctx) },
		OnStop:  func(context.Context) error { pool.Close(); return nil },
	})
	return thread.NewPostgresStore(log, pool), nil
}

func provideOrchestrator(log *slog.Logger, svc assistant.Service, store thread.Store, cfg config.Config) *orchestrator.Orchestrator {
	return orchestrator.New(log, svc, store, orchestrator.Options{
		PollInterval: time.Duration(cfg.Assistant.PollIntervalMs) * time.Millisecond,
		PollTimeout:  time.Duration(cfg.Assistant.PollTimeoutSec) * time.Second,
		Segments: channel.SegmentPolicy{
			Limit:       cfg.Reply.SegmentLimit,
			MaxSegments: cfg.Reply.MaxSegments,
		},
	})
}

func provideAdminService(log *slog.Logger, svc assistant.Service) *admin.Service {
	return admin.NewService(log, svc)
}

func provideAuthHandler(log *slog.Logger, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("parse jwt_expires_in: %w", err)
	}
	return handlers.NewAuthHandler(log, cfg.Admin.Username, cfg.Admin.Password, cfg.Auth.JWTSecret, expiresIn)
}

func provideFilesHandler(log *slog.Logger, files *admin.Service) *handlers.FilesHandler {
	return handlers.NewFilesHandler(log, files)
}

func provideServer(cfg config.Config, log *slog.Logger, pingHandler *handlers.PingHandler, authHandler *handlers.AuthHandler, filesHandler *handlers.FilesHandler) *server.Server {
	return server.NewServer(cfg.Server.Addr, cfg.Auth.JWTSecret, log, pingHandler, authHandler, filesHandler)
}

func startAdapter(lc fx.Lifecycle, adapter channel.Adapter, orch *orchestrator.Orchestrator) {
	var stop func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			stop, err = adapter.Connect(ctx, orch.HandleInbound)
			if err != nil {
				return fmt.Errorf("connect %s: %w", adapter.Type(), err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if stop == nil {
				return nil
			}
			return stop(ctx)
		},
	})
}

func startDiscord(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, orch *orchestrator.Orchestrator, files *admin.Service) {
	if !cfg.Discord.Enabled {
		return
	}
	startAdapter(lc, discord.NewAdapter(log, cfg.Discord.BotToken, files), orch)
}

func startTelegram(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, orch *orchestrator.Orchestrator, files *admin.Service) {
	if !cfg.Telegram.Enabled {
		return
	}
	startAdapter(lc, telegram.NewAdapter(log, cfg.Telegram.BotToken, files), orch)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
