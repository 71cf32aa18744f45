package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/observability"
)

// NewApp builds a fiber app with the JSON error handler and global middlewares registered.
func NewApp(cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: !cfg.IsLocal(),
	})
	RegisterMiddlewares(app, logger, metrics, cfg.RequestTimeout())
	return app
}
