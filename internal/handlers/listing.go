package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bagswap/internal/middleware"
	"github.com/example/bagswap/internal/services"
)

// ListingHandler manages baggage allowance listings.
type ListingHandler struct {
	directory *services.DirectoryService
}

// NewListingHandler constructs ListingHandler.
func NewListingHandler(directory *services.DirectoryService) *ListingHandler {
	return &ListingHandler{directory: directory}
}

type createListingRequest struct {
	UserID     string `json:"userId"`
	FlightNo   string `json:"flightNo"`
	FlightDate string `json:"flightDate"`
	Airline    string `json:"airline"`
	WeightKg   int    `json:"weightKg"`
	PricePerKg int64  `json:"pricePerKg"`
	AutoAccept bool   `json:"autoAccept"`
}

// CreateListing publishes spare allowance on a flight.
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	sellerID, err := middleware.ResolveActor(c, req.UserID)
	if err != nil {
		return err
	}

	res, err := h.directory.CreateListing(c.UserContext(), services.CreateListingInput{
		SellerID:   sellerID,
		FlightNo:   req.FlightNo,
		FlightDate: req.FlightDate,
		Airline:    req.Airline,
		WeightKg:   req.WeightKg,
		PricePerKg: req.PricePerKg,
		AutoAccept: req.AutoAccept,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":            true,
		"listing":            res.Listing,
		"autoAcceptAdjusted": res.AutoAcceptAdjusted,
		"userTrustScore":     res.UserTrustScore,
	})
}

// ListListings returns active listings, optionally filtered by flight or seller.
func (h *ListingHandler) ListListings(c *fiber.Ctx) error {
	q := services.ListingQuery{
		FlightNo:   c.Query("flightNo"),
		FlightDate: c.Query("flightDate"),
	}

	if sellerID := c.Query("sellerId"); sellerID != "" {
		id, err := uuid.Parse(sellerID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid sellerId")
		}
		q.SellerID = &id
	}

	// Anonymous browsing is allowed; contact details stay masked.
	if viewer, ok := middleware.GetCurrentUserID(c); ok {
		if claimed := c.Query("userId"); claimed != "" {
			if _, err := middleware.ResolveActor(c, claimed); err != nil {
				return err
			}
		}
		q.ViewerID = viewer
	}

	listings, err := h.directory.ListListings(c.UserContext(), q)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"listings": listings,
	})
}

// DeactivateListing withdraws the caller's listing.
func (h *ListingHandler) DeactivateListing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	actorID, err := middleware.ResolveActor(c, "")
	if err != nil {
		return err
	}

	listing, err := h.directory.DeactivateListing(c.UserContext(), id, actorID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"listing": listing,
	})
}
