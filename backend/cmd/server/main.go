package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/user/cryptodash/backend/internal/config"
	"github.com/user/cryptodash/backend/internal/dashboard"
	"github.com/user/cryptodash/backend/internal/handlers"
	"github.com/user/cryptodash/backend/internal/logger"
	"github.com/user/cryptodash/backend/internal/middleware"
	"github.com/user/cryptodash/backend/internal/registry"
	internalws "github.com/user/cryptodash/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Event hub for connected dashboard views
	hub := internalws.NewHub(log)
	go hub.Run()
	defer hub.Stop()

	client := registry.NewClient(cfg.BackendURL, cfg.RequestTimeout, log)
	state := dashboard.New(client, cfg.StartingBalance, hub, log)

	// Initial load; the dashboard still starts if the backend is unreachable.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	if assets, err := state.LoadAssets(ctx); err != nil {
		log.Warn("initial asset load failed", zap.Error(err))
	} else {
		log.Info("assets loaded", zap.Int("count", len(assets)))
	}
	cancel()

	app := fiber.New(fiber.Config{
		AppName:               "cryptodash",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowHeaders: "Content-Type, Authorization, " + middleware.RequestIDHeader,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	handlers.New(state, hub, log).Register(app)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("starting server",
		zap.String("addr", cfg.ListenAddr()),
		zap.String("backend", cfg.BackendURL),
		zap.Float64("starting_balance", cfg.StartingBalance),
	)
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		log.Fatal("http", zap.Error(err))
	}
}
