package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-assistant/internal/api"
	"news-assistant/internal/assistant"
	"news-assistant/internal/config"
	"news-assistant/internal/db"
	"news-assistant/internal/history"
	"news-assistant/internal/news"
	redisdb "news-assistant/internal/redis"
	"news-assistant/internal/scheduler"
	"news-assistant/internal/session"
	"news-assistant/internal/summarizer"
	"news-assistant/internal/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// run serves until a shutdown signal or a listener error
func run() error {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo *history.Repository
	if cfg.History.Enabled {
		if err := db.Init(cfg); err != nil {
			return fmt.Errorf("DB init error: %w", err)
		}
		repo = history.NewRepository(db.DB)
	} else {
		log.Printf("[Main] History disabled in config")
	}

	var store session.Store
	var memStore *session.MemoryStore
	switch cfg.Session.Store {
	case "redis":
		rdb, err := redisdb.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis error: %w", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.Session.TTL())
	default:
		memStore = session.NewMemoryStore(cfg.Session.TTL())
		store = memStore
	}
	log.Printf("[Main] Session store: %s (ttl %s)", cfg.Session.Store, cfg.Session.TTL())

	newsClient := news.NewClient(cfg.News)
	registry := tools.NewRegistry(0)
	if err := registry.Register(tools.NewNewsTool(newsClient, cfg.News.DefaultPageSize)); err != nil {
		return fmt.Errorf("tool registry error: %w", err)
	}

	client := assistant.NewClient(cfg.Assistant)
	poller := assistant.NewPoller(client, registry, cfg.Assistant.PollInterval(), cfg.Assistant.RunTimeout())
	manager := session.NewManager(store, client, summarizer.AssistantDefinition(cfg.Assistant, registry.Definitions()), cfg.Assistant.AssistantID)

	opts := summarizer.Options{
		Sessions:          manager,
		API:               client,
		Poller:            poller,
		RunInstructions:   cfg.Assistant.RunInstructions,
		MaxConcurrentRuns: cfg.Assistant.MaxConcurrentRuns,
	}
	services := &api.Services{Breaker: newsClient.Breaker(), Sessions: manager}
	var pruner scheduler.Pruner
	if repo != nil {
		opts.History = repo
		services.History = repo
		pruner = repo
	}
	svc := summarizer.New(opts)
	services.Summarizer = svc

	var sweeper session.Sweeper
	if memStore != nil {
		sweeper = memStore
	}
	sched, err := scheduler.New(cfg.Maintenance.Schedule, pruner, cfg.History.Retention(), sweeper)
	if err != nil {
		return fmt.Errorf("scheduler error: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	r := api.SetupRouter(cfg, services)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	log.Printf("[Main] Starting server on %s%s (model: %s)", addr, cfg.Server.Subpath, cfg.Assistant.Model)
	return serve(ctx, srv, cfg.Assistant.RunTimeout()+5*time.Second)
}

// serve runs srv until ctx is done or the listener fails. In-flight requests
// get grace to finish.
func serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Printf("[Main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Main] Shutdown error: %v", err)
	}
	return nil
}
