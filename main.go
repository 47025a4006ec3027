package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/mergimg0/ttnts121-sub004/internals/bootstrap"
	"github.com/mergimg0/ttnts121-sub004/internals/configs"
	database "github.com/mergimg0/ttnts121-sub004/internals/databases"
	helper "github.com/mergimg0/ttnts121-sub004/internals/helpers"
	middlewares "github.com/mergimg0/ttnts121-sub004/internals/middlewares"
	routes "github.com/mergimg0/ttnts121-sub004/internals/route"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 🔌 DB connect + pool + warm-up
	db := database.ConnectDB(cfg)
	database.TunePool(db)
	database.WarmUpQueries(db)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}

	c := bootstrap.Build(cfg, db)
	defer c.Close()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		BodyLimit:               1 << 20,
		// error dari middleware (auth, limiter) juga pakai envelope yang sama
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromFiberError(c, err)
		},
	})

	middlewares.SetupMiddlewares(app, cfg)
	routes.SetupRoutes(app, c.RouteDeps())

	// ⏱ scheduler setelah DB siap
	if err := c.Scheduler.Start(); err != nil {
		log.Fatalf("❌ scheduler: %v", err)
	}

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Printf("✅ Listening on :%s", cfg.Port)
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP, cron, lalu pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	c.Scheduler.Stop(ctx)
	database.Close(db)
	log.Println("👋 bye")
}
