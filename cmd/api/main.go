package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/audit-logger/backend/internal/config"
	"github.com/audit-logger/backend/internal/db"
	"github.com/audit-logger/backend/internal/events"
	apphttp "github.com/audit-logger/backend/internal/http"
	"github.com/audit-logger/backend/internal/http/dto"
	"github.com/audit-logger/backend/internal/http/handlers"
	"github.com/audit-logger/backend/internal/middleware"
	"github.com/audit-logger/backend/internal/repositories"
	"github.com/audit-logger/backend/internal/services"
	"github.com/audit-logger/backend/migrations"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store services.LogStore
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = repositories.NewMemoryLogRepo()
	default:
		pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, db.PoolOptions{
			MaxConns: int32(cfg.PostgresMaxConns),
			MinConns: int32(cfg.PostgresMinConns),
		}, log)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer pool.Close()

		var migrationsFS fs.FS = migrations.FS
		if cfg.MigrationsDir != "" {
			migrationsFS = os.DirFS(cfg.MigrationsDir)
		}
		if err := db.RunMigrations(ctx, pool, migrationsFS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}

		store = repositories.NewLogRepo(pool)
	}
	log.Info("log store ready", zap.String("driver", cfg.StoreDriver))

	// Redis (optional)
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}

	var (
		publisher  events.Publisher = events.NopPublisher{}
		subscriber events.Subscriber
	)
	if rdb != nil {
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
		subscriber = events.NewRedisSubscriber(rdb, log)
	}

	// Services and handlers
	logService := services.NewLogService(store, publisher, cfg.EventsChannel, log)
	logHandler := handlers.NewLogHandler(logService, log)
	tailHub := handlers.NewTailHub(subscriber, cfg.EventsChannel, log)

	if err := tailHub.Start(ctx); err != nil {
		log.Fatal("failed to start live tail", zap.Error(err))
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			} else {
				log.Error("unhandled error",
					zap.String("request_id", middleware.GetRequestID(c)),
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, logHandler, tailHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("logger server is running", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
