package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/bagswap/internal/config"
	"github.com/example/bagswap/internal/database"
	"github.com/example/bagswap/internal/handlers"
	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/routes"
	"github.com/example/bagswap/internal/services"
	"github.com/example/bagswap/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	status := cfg.Status()
	for _, issue := range status.Issues {
		log.Warn("configuration issue", "issue", issue)
	}

	m := metrics.New("bagswap")

	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal("failed to connect to database", "error", err)
		}
		st = store.NewGormStore(db)
	} else {
		st = store.NewMemoryStore()
	}

	var sink services.LogSink = st
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoSink, err := services.NewMongoLogSink(ctx, cfg.MongoURI, cfg.MongoDatabase)
		cancel()
		if err != nil {
			log.Warn("mongo log sink unavailable, using the datastore", "error", err)
		} else {
			sink = mongoSink
			defer mongoSink.Close(context.Background())
		}
	}
	appLog := services.NewAppLog(sink, log, m)

	var escrow services.Escrow = services.DisabledEscrow{}
	if cfg.EscrowEnabled && status.StripeConfigured {
		escrow = services.NewStripeEscrow(cfg.StripeSecretKey, cfg.PaymentCurrency, log, m)
	}
	log.Info("payment mode selected", "escrow", escrow.Enabled(), "currency", cfg.PaymentCurrency)

	app := fiber.New(fiber.Config{
		AppName:      "BagSwap Backend",
		ErrorHandler: handlers.ErrorHandler(log, appLog),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	routes.Register(app, cfg, routes.Deps{
		Store:   st,
		Escrow:  escrow,
		AppLog:  appLog,
		Logger:  log,
		Metrics: m,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("starting server", "port", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal("fiber.Listen error", "error", err)
	}
}
