package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/services"
	"github.com/example/bagswap/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	disputes *services.DisputeService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(disputes *services.DisputeService) *AdminHandler {
	return &AdminHandler{disputes: disputes}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.disputes.Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// ListDisputes returns disputed matches with their dispute records.
func (h *AdminHandler) ListDisputes(c *fiber.Ctx) error {
	disputes, err := h.disputes.ListOpen(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"disputes": disputes,
	})
}

type resolveDisputeRequest struct {
	MatchID    string `json:"matchId"`
	Resolution string `json:"resolution"`
	AdminNotes string `json:"adminNotes"`
}

// ResolveDispute applies a refund, release or partial decision.
func (h *AdminHandler) ResolveDispute(c *fiber.Ctx) error {
	var req resolveDisputeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	matchID, err := uuid.Parse(req.MatchID)
	if err != nil || req.Resolution == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
	}

	res, err := h.disputes.Resolve(c.UserContext(), services.ResolveInput{
		MatchID:    matchID,
		Resolution: req.Resolution,
		AdminNotes: req.AdminNotes,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"match":         res.Match,
		"resolution":    res.Resolution,
		"paymentAction": res.PaymentAction,
		"message":       res.Message,
	})
}

// ListFraudFlags returns fraud flags, newest first.
func (h *AdminHandler) ListFraudFlags(c *fiber.Ctx) error {
	pagination := utils.ParsePagination(c)

	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid userId")
		}
		userID = &id
	}

	page, err := h.disputes.ListFraudFlags(c.UserContext(), userID, pagination.Limit, pagination.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"flags":      page.Flags,
		"pagination": pagination.Meta(page.Total),
	})
}

type suspendUserRequest struct {
	Reason string `json:"reason"`
}

// SuspendUser blocks a user and withdraws their listings.
func (h *AdminHandler) SuspendUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req suspendUserRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	user, err := h.disputes.SuspendUser(c.UserContext(), id, req.Reason)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}
