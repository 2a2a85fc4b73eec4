package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bagswap/internal/config"
	"github.com/example/bagswap/internal/services"
)

// Pinger reports datastore reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health, diagnostics and client error reports.
type SystemHandler struct {
	cfg    *config.Config
	db     Pinger
	appLog *services.AppLog
}

// NewSystemHandler constructs SystemHandler.
func NewSystemHandler(cfg *config.Config, db Pinger, appLog *services.AppLog) *SystemHandler {
	return &SystemHandler{cfg: cfg, db: db, appLog: appLog}
}

// Health reports process and datastore liveness.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "degraded",
			"database": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Diagnostic exposes which integrations are configured. Secrets are reduced to prefixes.
func (h *SystemHandler) Diagnostic(c *fiber.Ctx) error {
	status := h.cfg.Status()

	recommendations := []string{}
	if !status.Valid() {
		recommendations = append(recommendations, "Set DATABASE_URL and a real STRIPE_SECRET_KEY before going live")
	}
	if status.PlaceholderSecret {
		recommendations = append(recommendations, "Copy the JWT secret from the auth provider settings into AUTH_JWT_SECRET")
	}

	return c.JSON(fiber.Map{
		"success":     status.Valid(),
		"environment": h.cfg.AppEnv,
		"status":      status,
		"keys": fiber.Map{
			"supabaseUrl":          h.cfg.SupabaseURL,
			"supabaseAnonKey":      config.MaskSecret(h.cfg.SupabaseAnonKey, 12),
			"supabaseServiceKey":   config.MaskSecret(h.cfg.SupabaseServiceKey, 12),
			"stripeSecretKey":      config.MaskSecret(h.cfg.StripeSecretKey, 8),
			"stripePublishableKey": config.MaskSecret(h.cfg.StripePublishableKey, 8),
		},
		"recommendations": recommendations,
	})
}

type clientErrorRequest struct {
	Message   string         `json:"message"`
	Stack     string         `json:"stack"`
	URL       string         `json:"url"`
	UserAgent string         `json:"userAgent"`
	Context   map[string]any `json:"context"`
}

// LogClientError stores a frontend error report in the app log.
func (h *SystemHandler) LogClientError(c *fiber.Ctx) error {
	var req clientErrorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Get(fiber.HeaderUserAgent)
	}

	h.appLog.Error(c.UserContext(), "client error: "+req.Message, map[string]any{
		"stack":      req.Stack,
		"url":        req.URL,
		"user_agent": userAgent,
		"context":    req.Context,
		"ip":         c.IP(),
	})

	return c.JSON(fiber.Map{"success": true})
}

// ClientErrorHealth lets clients probe the error reporting endpoint.
func (h *SystemHandler) ClientErrorHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "endpoint": "log-client-error"})
}
