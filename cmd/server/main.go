package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/forum-service/internal/api"
	"github.com/UkralStul/forum-service/internal/cache"
	"github.com/UkralStul/forum-service/internal/config"
	"github.com/UkralStul/forum-service/internal/dataloader"
	"github.com/UkralStul/forum-service/internal/events"
	"github.com/UkralStul/forum-service/internal/seed"
	"github.com/UkralStul/forum-service/internal/service"
	"github.com/UkralStul/forum-service/internal/storage"
	"github.com/UkralStul/forum-service/internal/storage/inmemory"
	"github.com/UkralStul/forum-service/internal/storage/postgres"
	"github.com/joho/godotenv"
)

func main() {
	storageType := flag.String("storage", "", "Storage type (in-memory or postgres), overrides STORAGE")
	flag.Parse()

	// .env не обязателен
	_ = godotenv.Load()

	cfg, err := config.Load(*storageType)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var store storage.Storage

	log.Info("starting server", "storage", cfg.Storage)
	if cfg.Storage == config.StoragePostgres {
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
	} else {
		store = inmemory.New()
	}

	// Кэш авторов подключается только при заданном REDIS_URL
	var authors storage.AuthorSource = store
	opts := []service.Option{service.WithLogger(log)}
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, author cache disabled", "err", err)
		} else {
			defer client.Close()
			ac := cache.NewAuthorCache(client, store, cfg.AuthorCacheTTL, log)
			authors = ac
			opts = append(opts, service.WithAuthorInvalidator(ac))
		}
	}

	feed := events.NewPostObserver()
	opts = append(opts,
		service.WithAuthorSource(dataloader.NewSource(authors)),
		service.WithPublisher(feed),
	)
	svc := service.New(store, opts...)

	if cfg.Seed && cfg.Storage == config.StorageInMemory {
		// Заполним данными для тестов
		res, err := seed.Demo(ctx, svc, seed.DefaultOptions())
		if err != nil {
			return err
		}
		log.Info("mock data filled", "users", len(res.Users), "topics", len(res.Topics), "posts", res.Posts)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(api.Deps{Service: svc, Authors: authors, Feed: feed, Logger: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", "http://localhost:"+cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
