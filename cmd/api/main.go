package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/brioso-market/internal/config"
	"github.com/flicky/brioso-market/internal/handler"
	"github.com/flicky/brioso-market/internal/media"
	"github.com/flicky/brioso-market/internal/metrics"
	"github.com/flicky/brioso-market/internal/repository"
	"github.com/flicky/brioso-market/internal/service"
	"github.com/flicky/brioso-market/internal/storage"
	"github.com/flicky/brioso-market/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis backs the redis storage driver and sale deduplication.
	var redisClient *redis.Client
	if cfg.Storage.Driver == "redis" || cfg.RabbitMQ.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to Redis")
	}

	// Storage
	backend, err := openBackend(ctx, cfg, redisClient)
	if err != nil {
		log.Error("open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	// a session slot is useless once the token naming it has expired
	store := storage.New(backend, cfg.Storage.Prefix, log, storage.WithSessionTTL(cfg.JWT.Expiration))
	defer store.Close()
	log.Info("storage ready", "driver", cfg.Storage.Driver, "prefix", cfg.Storage.Prefix)

	if cfg.Storage.SweepInterval > 0 {
		go store.RunSweeper(ctx, cfg.Storage.SweepInterval)
	}

	if cfg.Storage.Seed {
		if _, _, err := store.SeedIfEmpty(ctx); err != nil {
			log.Error("seed storage", "error", err)
			os.Exit(1)
		}
	}

	repos := repository.NewRepositories(store)
	m := metrics.New()

	// Images
	var images media.Store = media.Inline{}
	if cfg.Media.Enabled() {
		minioStore, err := media.NewMinioStore(cfg.Media, log)
		if err != nil {
			log.Error("connect to MinIO", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			log.Error("ensure bucket", "bucket", cfg.Media.Bucket, "error", err)
			os.Exit(1)
		}
		images = minioStore
		log.Info("connected to MinIO", "bucket", cfg.Media.Bucket)
	}

	// RabbitMQ
	var (
		amqpConn   *amqp.Connection
		publisher  service.SalePublisher
		saleWorker *worker.SaleWorker
	)
	if cfg.RabbitMQ.Enabled() {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		amqpCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer amqpCh.Close()

		if err := worker.SetupRabbitMQ(amqpCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		log.Info("connected to RabbitMQ")

		publisher = worker.NewAMQPPublisher(amqpCh)
		saleWorker = worker.NewSaleWorker(amqpCh, repos.Transactions, repos.Users, redisClient, m, log)
		if err := saleWorker.Start(ctx); err != nil {
			log.Error("start sale worker", "error", err)
			os.Exit(1)
		}
	}

	market := service.NewMarketplace(repos, images, publisher, m, log, cfg.Auth.BcryptCost)

	router := handler.NewRouter(
		handler.RouterConfig{
			JWTSecret:      cfg.JWT.Secret,
			JWTExpiry:      cfg.JWT.Expiration,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
		market,
		handler.NewHealthHandler(store, redisClient, amqpConn),
		m,
		log,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if saleWorker != nil {
		saleWorker.Stop()
		time.Sleep(500 * time.Millisecond)
	}
	cancel()
	log.Info("server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (storage.Backend, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite":
		return storage.OpenSQLite(cfg.Storage.SQLitePath)
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse db config: %w", err)
		}
		poolCfg.MaxConns = cfg.DB.MaxConns

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		backend, err := storage.NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil
	case "redis":
		return storage.NewRedisBackend(redisClient), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
