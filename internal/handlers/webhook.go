package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/services"
)

// WebhookHandler receives payment processor events.
type WebhookHandler struct {
	matches *services.MatchService
	secret  string
	log     logger.Logger
}

// NewWebhookHandler constructs WebhookHandler. An empty secret accepts unsigned events.
func NewWebhookHandler(matches *services.MatchService, secret string, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{matches: matches, secret: secret, log: log}
}

var paymentOutcomes = map[string]services.PaymentOutcome{
	"payment_intent.succeeded":      services.PaymentSucceeded,
	"payment_intent.payment_failed": services.PaymentFailed,
	"payment_intent.canceled":       services.PaymentCanceled,
}

// Stripe handles a Stripe event delivery.
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	payload := c.Body()

	var event stripe.Event
	if h.secret != "" {
		var err error
		event, err = webhook.ConstructEventWithOptions(payload, c.Get("Stripe-Signature"), h.secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			h.log.Warn("stripe webhook signature rejected", "error", err)
			return fiber.NewError(fiber.StatusBadRequest, "invalid signature")
		}
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		h.log.Warn("stripe webhook accepted without signature verification", "event", event.ID)
	}

	eventType := string(event.Type)
	outcome, ok := paymentOutcomes[eventType]
	if !ok {
		h.log.Info("stripe webhook ignored", "event", event.ID, "type", eventType)
		return c.JSON(fiber.Map{"received": true})
	}

	if event.Data == nil {
		return fiber.NewError(fiber.StatusBadRequest, "event has no data")
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil || intent.ID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "event has no payment intent")
	}

	match, err := h.matches.ApplyPaymentOutcome(c.UserContext(), intent.ID, outcome)
	if err != nil {
		return err
	}

	body := fiber.Map{"received": true}
	if match != nil {
		body["matchId"] = match.ID
		body["status"] = match.Status
	}
	return c.JSON(body)
}
