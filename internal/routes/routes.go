package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/bagswap/internal/config"
	"github.com/example/bagswap/internal/handlers"
	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/middleware"
	"github.com/example/bagswap/internal/services"
	"github.com/example/bagswap/internal/store"
)

// Deps are the long-lived collaborators shared by all handlers.
type Deps struct {
	Store    store.Store
	Escrow   services.Escrow
	AppLog   *services.AppLog
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Notifier services.DisputeNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, cfg *config.Config, deps Deps) {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, deps.Logger)
	}

	fraud := services.NewFraudService(deps.Store, deps.Store, deps.Logger, deps.Metrics)
	directory := services.NewDirectoryService(deps.Store, deps.Store, deps.Store, deps.Logger)
	matchService := services.NewMatchService(deps.Store, fraud, deps.Escrow, notifier, deps.AppLog, deps.Logger, deps.Metrics, cfg.PaymentCurrency)
	disputeService := services.NewDisputeService(deps.Store, deps.Escrow, notifier, deps.AppLog, deps.Logger, deps.Metrics, cfg.PaymentCurrency)
	profileService := services.NewProfileService(deps.Store, deps.AppLog, deps.Logger)

	listingHandler := handlers.NewListingHandler(directory)
	matchHandler := handlers.NewMatchHandler(matchService)
	adminHandler := handlers.NewAdminHandler(disputeService)
	profileHandler := handlers.NewProfileHandler(profileService)
	webhookHandler := handlers.NewWebhookHandler(matchService, cfg.StripeWebhookSecret, deps.Logger)
	systemHandler := handlers.NewSystemHandler(cfg, deps.Store, deps.AppLog)

	app.Get("/health", systemHandler.Health)
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	requireAuth := middleware.AuthMiddleware(cfg.JWTSecret)

	api.Get("/diagnostic", systemHandler.Diagnostic)
	api.Get("/log-client-error", systemHandler.ClientErrorHealth)
	api.Post("/log-client-error", systemHandler.LogClientError)

	// Payment processor callbacks
	api.Post("/webhooks/stripe", webhookHandler.Stripe)
	api.Post("/webhooks/payment-provider", webhookHandler.Stripe)

	// Auth and profile
	api.Post("/auth/sync", requireAuth, profileHandler.Sync)
	profile := api.Group("/profile", requireAuth)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)

	// Listings
	listings := api.Group("/listings")
	listings.Get("/", middleware.OptionalAuth(cfg.JWTSecret), listingHandler.ListListings)
	listings.Post("/", requireAuth, listingHandler.CreateListing)
	listings.Post("/:id/deactivate", requireAuth, listingHandler.DeactivateListing)

	// Matches
	matches := api.Group("/matches", requireAuth)
	matches.Post("/", matchHandler.CreateMatch)
	matches.Get("/", matchHandler.ListMatches)
	matches.Get("/:id", matchHandler.GetMatch)
	matches.Get("/:id/qr", matchHandler.MatchQRCode)
	matches.Post("/:id/accept", matchHandler.AcceptMatch)
	matches.Post("/:id/confirm", matchHandler.ConfirmMatch)
	matches.Post("/:id/dispute", matchHandler.DisputeMatch)
	matches.Post("/:id/cancel", matchHandler.CancelMatch)

	// Admin
	admin := api.Group("/admin", middleware.AdminKeyMiddleware(cfg.AdminAPIKey, cfg.AdminAPIKeyHash))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/disputes", adminHandler.ListDisputes)
	admin.Post("/disputes", adminHandler.ResolveDispute)
	admin.Get("/fraud-flags", adminHandler.ListFraudFlags)
	admin.Post("/users/:id/suspend", adminHandler.SuspendUser)
}
