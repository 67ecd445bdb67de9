package http

import (
	"time"

	"github.com/audit-logger/backend/internal/config"
	"github.com/audit-logger/backend/internal/http/handlers"
	"github.com/audit-logger/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SetupRouter registers middleware and routes. rdb may be nil, in which case
// rate limiting is off.
func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	logHandler *handlers.LogHandler,
	tailHub *handlers.TailHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/status", logHandler.Status)

	create := []fiber.Handler{}
	if rdb != nil && cfg.RateLimitPerMinute > 0 {
		create = append(create, middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))
	}
	create = append(create, logHandler.CreateLog)

	app.Post("/logs/create", create...)
	app.Get("/logs", logHandler.QueryLogs)
	app.Post("/logs/query", logHandler.QueryLogs)

	// Live tail
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws/logs", websocket.New(tailHub.HandleWS))
}
