package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bagswap/internal/middleware"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/services"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type syncRequest struct {
	User services.AuthUser `json:"user"`
}

// Sync upserts the caller's profile from the auth provider's user payload.
func (h *ProfileHandler) Sync(c *fiber.Ctx) error {
	var req syncRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	if req.User.ID != userID {
		return fiber.NewError(fiber.StatusForbidden, "user does not match the authenticated user")
	}

	user, err := h.profiles.Sync(c.UserContext(), req.User)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profileResponse(user),
	})
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := h.profiles.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profileResponse(user),
	})
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.profiles.Update(c.UserContext(), userID, services.ProfileUpdate{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profileResponse(user),
	})
}

func profileResponse(user *models.User) fiber.Map {
	return fiber.Map{
		"id":                  user.ID,
		"email":               user.Email,
		"full_name":           user.FullName,
		"phone":               user.Phone,
		"avatar_url":          user.AvatarURL,
		"verified":            user.Verified,
		"suspended":           user.Suspended,
		"match_history_count": user.MatchHistoryCount,
		"past_flights_count":  user.PastFlightsCount,
		"trust_score":         services.TrustScore(user),
		"created_at":          user.CreatedAt,
		"updated_at":          user.UpdatedAt,
	}
}
