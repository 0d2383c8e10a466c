package app

import (
	"context"
	"time"

	"github.com/gotd/td/tg"
	"golang.org/x/sync/errgroup"

	"github.com/pavelc4/aether-dl-bot/config"
	"github.com/pavelc4/aether-dl-bot/internal/api"
	"github.com/pavelc4/aether-dl-bot/internal/bot"
	"github.com/pavelc4/aether-dl-bot/internal/fetch"
	"github.com/pavelc4/aether-dl-bot/internal/handler"
	"github.com/pavelc4/aether-dl-bot/internal/middleware"
	"github.com/pavelc4/aether-dl-bot/internal/probe"
	"github.com/pavelc4/aether-dl-bot/internal/provider"
	"github.com/pavelc4/aether-dl-bot/internal/resolver"
	"github.com/pavelc4/aether-dl-bot/internal/stats"
	"github.com/pavelc4/aether-dl-bot/internal/telegram"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
	"github.com/pavelc4/aether-dl-bot/pkg/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	staleStagedAge  = time.Hour
)

type App struct {
	Bot  *bot.Bot
	Cfg  *config.Config
	pool *worker.Pool
	api  *api.Health
}

func New(cfg *config.Config) (*App, error) {
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	registry := provider.NewRegistry(
		provider.NewTikWM(cfg.TikWM.API, cfg.TikWM.Timeout),
		provider.NewCobalt(cfg.Cobalt.API, cfg.Cobalt.APIKey, cfg.Cobalt.Timeout),
		provider.NewYtDlp(cfg.YtDlp.Binary, cfg.YtDlp.Cookies, cfg.YtDlp.Timeout),
	)
	logger.Info("Providers registered", "providers", registry.Names())

	engine := resolver.New(
		registry.Providers(),
		fetch.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent),
		probe.New(cfg.Probe.Binary, cfg.Probe.Timeout),
		cfg.MaxParallelFetches,
	)

	dispatcher := tg.NewUpdateDispatcher()

	client, err := telegram.NewClient(cfg, dispatcher)
	if err != nil {
		return nil, err
	}

	sender := telegram.NewSender(client.API())
	st := stats.New()

	dlHandler := handler.NewDownloadHandler(engine, sender, st, handler.DownloadOptions{
		WorkDir:       cfg.WorkDir,
		MaxUploadSize: cfg.MaxUploadSize,
		Timeout:       cfg.RequestTimeout,
	})
	adminHandler := handler.NewAdminHandler(sender, st, cfg.OwnerID, cfg.WorkDir)
	basicHandler := handler.NewBasicHandler(sender, registry.Names(), cfg.MaxUploadSize)

	router := bot.NewRouter(dlHandler, adminHandler, basicHandler, registry)
	// Resolve gets RequestTimeout; the upload after it gets as much again.
	jobTimeout := 2 * cfg.RequestTimeout
	pool := worker.NewPool(cfg.Workers)

	// Updates are handed to the pool so a slow download never blocks the
	// dispatcher. Jobs run on the pool's context, not the update's.
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
		job := middleware.Chain(
			func(ctx context.Context) error { return router.OnMessage(ctx, e, update) },
			middleware.Recover,
			middleware.Logger("OnNewMessage"),
			middleware.Timeout(jobTimeout),
		)
		if !pool.Submit(worker.Job(job)) {
			logger.Warn("Update dropped, pool is stopping")
		}
		return nil
	})

	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
		job := middleware.Chain(
			func(ctx context.Context) error { return router.OnChannelMessage(ctx, e, update) },
			middleware.Recover,
			middleware.Logger("OnNewChannelMessage"),
			middleware.Timeout(jobTimeout),
		)
		if !pool.Submit(worker.Job(job)) {
			logger.Warn("Update dropped, pool is stopping")
		}
		return nil
	})

	logger.Info("Application initialized successfully")
	return &App{
		Bot:  bot.New(client),
		Cfg:  cfg,
		pool: pool,
		api:  api.NewHealth(st, registry.Names(), pool.Active),
	}, nil
}

// Start blocks until ctx is cancelled or the Telegram client fails, then
// drains in-flight jobs.
func (a *App) Start(ctx context.Context) error {
	if _, err := fetch.Sweep(ctx, a.Cfg.WorkDir, staleStagedAge); err != nil {
		logger.Warn("Stale file sweep incomplete", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Bot.Run(gctx, a.Cfg.BotToken)
	})

	if a.Cfg.HealthAddr != "" {
		g.Go(func() error {
			return api.Serve(gctx, a.Cfg.HealthAddr, api.NewRouter(a.api))
		})
	}

	err := g.Wait()

	logger.Info("Draining workers", "active", a.pool.Active())
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if stopErr := a.pool.Stop(stopCtx); stopErr != nil {
		logger.Warn("Workers did not drain in time", "error", stopErr)
	}

	if ctx.Err() != nil {
		return nil
	}
	return err
}
