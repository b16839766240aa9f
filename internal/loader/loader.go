package loader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"scrapestream/internal/config"
	"scrapestream/internal/core"
	"scrapestream/internal/dedup"
	"scrapestream/internal/hub"
	"scrapestream/internal/server/feed"
	"scrapestream/internal/sources"
	"scrapestream/internal/storage"

	_ "scrapestream/internal/storage/redis"
	_ "scrapestream/internal/storage/sqlite"
)

// App is the assembled pipeline: one poller per configured source, the shared
// event queue, the broadcaster, and the HTTP server hosting the subscriber
// socket (and optionally the recent-items feeds).
type App struct {
	cfg         *config.Config
	store       storage.Store
	queue       *core.Queue
	hub         *hub.Hub
	pollers     []*core.Poller
	broadcaster *core.Broadcaster
	server      *http.Server
}

func LoadAndBuild(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return Build(ctx, cfg)
}

func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	queue := core.NewQueue(cfg.Broadcast.QueueSize, cfg.Broadcast.ItemDelayDuration())
	subscriberHub := hub.New()

	sinks := []core.Sink{subscriberHub}

	mux := http.NewServeMux()
	mux.Handle("/", subscriberHub)

	if cfg.Feed.Enabled {
		window := feed.NewWindow(cfg.Feed.Size)
		window.Register(mux)
		sinks = append(sinks, window)
	}

	app := &App{
		cfg:         cfg,
		store:       store,
		queue:       queue,
		hub:         subscriberHub,
		broadcaster: core.NewBroadcaster(queue, sinks...),
		server: &http.Server{
			Addr:    cfg.Server.Listen,
			Handler: mux,
		},
	}

	for name, sourceCfg := range cfg.Sources {
		poller, err := buildPoller(sourceCfg, store, queue)
		if err != nil {
			store.Close(ctx)
			return nil, fmt.Errorf("failed to build source %s: %w", name, err)
		}
		app.pollers = append(app.pollers, poller)
	}

	return app, nil
}

func buildPoller(cfg config.SourceConfig, store storage.Store, queue *core.Queue) (*core.Poller, error) {
	source, err := sources.New(cfg)
	if err != nil {
		return nil, err
	}

	deduper, err := dedup.ForStrategy(cfg.Strategy, store, cfg.ID())
	if err != nil {
		return nil, err
	}

	return core.NewPoller(source, deduper, queue, cfg.PollInterval()), nil
}

// Start runs the server, the broadcaster, and every poller, and blocks until
// ctx is canceled.
func (a *App) Start(ctx context.Context) error {
	go func() {
		slog.Info("Listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
		}
	}()

	go a.broadcaster.Run(ctx)

	// Give the transport and broadcaster time to come up before polling begins.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(a.cfg.Broadcast.StartupDelayDuration()):
	}

	var wg sync.WaitGroup
	for _, poller := range a.pollers {
		wg.Add(1)
		go func(p *core.Poller) {
			defer wg.Done()
			p.Run(ctx)
		}(poller)
	}
	wg.Wait()

	return ctx.Err()
}

func (a *App) Stop(ctx context.Context) error {
	a.hub.Close()

	if err := a.server.Shutdown(ctx); err != nil {
		slog.Warn("Server shutdown error", "error", err)
	}

	// Commit any cursor write still staged before letting go of the store.
	if err := a.store.Flush(ctx); err != nil {
		slog.Warn("Final cursor flush failed", "error", err)
	}

	if err := a.store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}

	return nil
}
