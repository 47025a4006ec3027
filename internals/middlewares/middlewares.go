package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"

	"github.com/mergimg0/ttnts121-sub004/internals/configs"
	"github.com/mergimg0/ttnts121-sub004/internals/middlewares/logger"
)

// SetupMiddlewares memasang middleware global (urutan penting: recover paling luar).
func SetupMiddlewares(app *fiber.App, cfg configs.Config) {
	app.Use(RecoveryMiddleware())
	app.Use(RequestIDMiddleware(5 * time.Second))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use(logger.LoggerMiddleware(cfg.Timezone))
	app.Use(GlobalRateLimiter())
}
