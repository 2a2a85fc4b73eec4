package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/middleware"
	"github.com/example/bagswap/internal/services"
)

// MatchHandler manages booking requests between buyers and sellers.
type MatchHandler struct {
	matches *services.MatchService
}

// NewMatchHandler constructs MatchHandler.
func NewMatchHandler(matches *services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type createMatchRequest struct {
	UserID     string `json:"userId"`
	ListingID  string `json:"listingId"`
	QuantityKg int    `json:"quantityKg"`
}

type actorRequest struct {
	UserID string `json:"userId"`
}

type confirmMatchRequest struct {
	UserID           string `json:"userId"`
	ConfirmationType string `json:"confirmationType"`
	QRCode           string `json:"qrCode"`
}

type disputeMatchRequest struct {
	UserID  string `json:"userId"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

// CreateMatch requests part of a listing's allowance.
func (h *MatchHandler) CreateMatch(c *fiber.Ctx) error {
	var req createMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	buyerID, err := middleware.ResolveActor(c, req.UserID)
	if err != nil {
		return err
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
	}

	res, err := h.matches.Create(c.UserContext(), services.CreateMatchInput{
		ListingID:  listingID,
		BuyerID:    buyerID,
		QuantityKg: req.QuantityKg,
	})
	if err != nil {
		return err
	}

	body := fiber.Map{
		"success":      true,
		"match":        res.Match,
		"fraudCheck":   res.FraudCheck,
		"autoAccepted": res.AutoAccepted,
	}
	if res.PaymentClientSecret != "" {
		body["paymentClientSecret"] = res.PaymentClientSecret
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

// ListMatches returns the caller's matches; type narrows to buyer or seller side.
func (h *MatchHandler) ListMatches(c *fiber.Ctx) error {
	userID, err := middleware.ResolveActor(c, c.Query("userId"))
	if err != nil {
		return err
	}

	role := c.Query("type")
	if role != "" && role != services.RoleBuyer && role != services.RoleSeller {
		return fiber.NewError(fiber.StatusBadRequest, "type must be buyer or seller")
	}

	matches, err := h.matches.List(c.UserContext(), userID, role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"matches": matches,
	})
}

// GetMatch returns a single match visible to the caller.
func (h *MatchHandler) GetMatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	viewerID, err := middleware.ResolveActor(c, c.Query("userId"))
	if err != nil {
		return err
	}

	match, err := h.matches.Get(c.UserContext(), id, viewerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"match":   match,
	})
}

// AcceptMatch lets the seller accept a pending request.
func (h *MatchHandler) AcceptMatch(c *fiber.Ctx) error {
	id, actorID, err := h.actor(c)
	if err != nil {
		return err
	}

	res, err := h.matches.Accept(c.UserContext(), id, actorID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"match":    res.Match,
		"contacts": res.Contacts,
	})
}

// CancelMatch withdraws a pending request.
func (h *MatchHandler) CancelMatch(c *fiber.Ctx) error {
	id, actorID, err := h.actor(c)
	if err != nil {
		return err
	}

	match, err := h.matches.Cancel(c.UserContext(), id, actorID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"match":   match,
	})
}

// ConfirmMatch records the baggage handover.
func (h *MatchHandler) ConfirmMatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req confirmMatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	actorID, err := middleware.ResolveActor(c, req.UserID)
	if err != nil {
		return err
	}

	res, err := h.matches.Confirm(c.UserContext(), services.ConfirmInput{
		MatchID:          id,
		ActorID:          actorID,
		ConfirmationType: req.ConfirmationType,
		QRCode:           req.QRCode,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"match":   res.Match,
		"payment": res.Payment,
		"message": res.Message,
	})
}

// DisputeMatch reports a problem with an accepted or confirmed match.
func (h *MatchHandler) DisputeMatch(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req disputeMatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	actorID, err := middleware.ResolveActor(c, req.UserID)
	if err != nil {
		return err
	}

	res, err := h.matches.Dispute(c.UserContext(), services.DisputeInput{
		MatchID: id,
		ActorID: actorID,
		Reason:  req.Reason,
		Details: req.Details,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"match":     res.Match,
		"message":   res.Message,
		"disputeId": res.DisputeID,
	})
}

// MatchQRCode returns the handover confirmation code of an accepted match.
func (h *MatchHandler) MatchQRCode(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	viewerID, err := middleware.ResolveActor(c, c.Query("userId"))
	if err != nil {
		return err
	}

	qr, err := h.matches.QRCode(c.UserContext(), id, viewerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"qrCode":    qr.Code,
		"qrData":    qr.Data,
		"expiresAt": qr.ExpiresAt,
	})
}

func (h *MatchHandler) actor(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	id, err := parseID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	var req actorRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	actorID, err := middleware.ResolveActor(c, req.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, actorID, nil
}
