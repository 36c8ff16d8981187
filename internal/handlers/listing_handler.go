package handlers

import (
	"errors"
	"fmt"
	"log"

	"edumarket/internal/models"
	"edumarket/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ListingHandler handles HTTP requests for listings and purchases.
type ListingHandler struct {
	service   *services.ListingService
	purchases *services.PurchaseService
	validate  *validator.Validate
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(service *services.ListingService, purchases *services.PurchaseService) *ListingHandler {
	return &ListingHandler{
		service:   service,
		purchases: purchases,
		validate:  newValidator(),
	}
}

// RegisterRoutes registers the listing routes. Reads are public; mutations go
// through authRequired. identify attaches the caller to purchase handoffs when
// a token is present.
func (h *ListingHandler) RegisterRoutes(router fiber.Router, authRequired, identify fiber.Handler) {
	listingRoutes := router.Group("/listings")
	listingRoutes.Get("/", h.HandleGetListings)
	listingRoutes.Get("/:id", h.HandleGetListingByID)
	listingRoutes.Get("/:id/purchase", identify, h.HandleStartPurchase)
	listingRoutes.Post("/", authRequired, h.HandleCreateListing)
	listingRoutes.Patch("/:id", authRequired, h.HandleUpdateListing)
	listingRoutes.Delete("/:id", authRequired, h.HandleDeleteListing)
	listingRoutes.Post("/:id/sold", authRequired, h.HandleMarkSold)

	router.Get("/sellers/:id/listings", h.HandleGetSellerListings)
}

// CreateListingRequest is the body of POST /listings. Seller identity comes
// from the authenticated session, not the body.
type CreateListingRequest struct {
	Kind        models.ListingKind `json:"kind" validate:"omitempty,oneof=book note"`
	Title       string             `json:"title" validate:"required"`
	Subject     string             `json:"subject" validate:"required"`
	Condition   string             `json:"condition" validate:"required,listing_condition"`
	Price       int64              `json:"price"`
	Description string             `json:"description"`
	Images      []string           `json:"images"`
	SellerPhone string             `json:"sellerPhone"`
	SellerUPI   string             `json:"sellerUPI"`
	Author      string             `json:"author"`
	Course      string             `json:"course"`
	Semester    string             `json:"semester"`
	University  string             `json:"university"`
}

func (r CreateListingRequest) toListing(sellerID, sellerName, sellerEmail string) *models.Listing {
	listing := &models.Listing{
		Kind:        r.Kind,
		SellerID:    sellerID,
		SellerName:  sellerName,
		SellerEmail: sellerEmail,
		SellerPhone: r.SellerPhone,
		SellerUPI:   r.SellerUPI,
		Title:       r.Title,
		Subject:     r.Subject,
		Condition:   models.Condition(r.Condition),
		Price:       r.Price,
		Description: r.Description,
		Images:      r.Images,
	}
	if r.Kind == models.KindNote {
		listing.Note = &models.NoteDetails{Course: r.Course, Semester: r.Semester, University: r.University}
	} else {
		listing.Book = &models.BookDetails{Author: r.Author}
	}
	return listing
}

// HandleGetListings returns active listings newest first, filtered by ?q=.
func (h *ListingHandler) HandleGetListings(c *fiber.Ctx) error {
	if query := c.Query("q"); query != "" {
		return c.JSON(h.service.Search(query))
	}
	return c.JSON(h.service.ListActive())
}

// HandleGetListingByID retrieves a single listing, sold or not.
func (h *ListingHandler) HandleGetListingByID(c *fiber.Ctx) error {
	listingID := c.Params("id")
	listing, err := h.service.GetListing(listingID)
	if err != nil {
		return h.listingError(c, listingID, "Could not retrieve listing", err)
	}
	return c.JSON(listing)
}

// HandleGetSellerListings returns every listing of one seller, sold included.
func (h *ListingHandler) HandleGetSellerListings(c *fiber.Ctx) error {
	return c.JSON(h.service.ListBySeller(c.Params("id")))
}

// HandleCreateListing publishes a listing for the signed-in seller.
func (h *ListingHandler) HandleCreateListing(c *fiber.Ctx) error {
	var req CreateListingRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	sellerID, _ := c.Locals("user_id").(string)
	sellerName, _ := c.Locals("name").(string)
	sellerEmail, _ := c.Locals("email").(string)
	listing := req.toListing(sellerID, sellerName, sellerEmail)

	if err := h.service.CreateListing(listing); err != nil {
		return h.listingError(c, "", "Could not create listing", err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// HandleUpdateListing applies a partial update to one of the caller's listings.
func (h *ListingHandler) HandleUpdateListing(c *fiber.Ctx) error {
	listingID := c.Params("id")
	var update models.ListingUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Printf("Error parsing request body for listing update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for listing update",
			"error":   err.Error(),
		})
	}
	if update.Condition != nil {
		if err := h.validate.Var(string(*update.Condition), "listing_condition"); err != nil {
			return validationFailed(c, err)
		}
	}

	if _, ok, err := h.ownedListing(c, listingID); !ok {
		return err
	}

	listing, err := h.service.UpdateListing(listingID, update)
	if err != nil {
		return h.listingError(c, listingID, "Could not update listing", err)
	}
	return c.JSON(listing)
}

// HandleMarkSold marks one of the caller's listings as sold.
func (h *ListingHandler) HandleMarkSold(c *fiber.Ctx) error {
	listingID := c.Params("id")
	if _, ok, err := h.ownedListing(c, listingID); !ok {
		return err
	}

	listing, err := h.service.MarkSold(listingID)
	if err != nil {
		return h.listingError(c, listingID, "Could not mark listing as sold", err)
	}
	return c.JSON(listing)
}

// HandleDeleteListing removes one of the caller's listings. A missing listing
// counts as already deleted.
func (h *ListingHandler) HandleDeleteListing(c *fiber.Ctx) error {
	listingID := c.Params("id")
	listing, err := h.service.GetListing(listingID)
	switch {
	case errors.Is(err, services.ErrNotFound):
	case err != nil:
		return h.listingError(c, listingID, "Could not delete listing", err)
	case !h.ownsListing(c, listing):
		return forbidden(c)
	default:
		if err := h.service.DeleteListing(listingID); err != nil {
			return h.listingError(c, listingID, "Could not delete listing", err)
		}
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Listing %s deleted successfully", listingID),
	})
}

// HandleStartPurchase returns the UPI deep link for buying a listing.
func (h *ListingHandler) HandleStartPurchase(c *fiber.Ctx) error {
	listingID := c.Params("id")
	buyerID, _ := c.Locals("user_id").(string)

	handoff, err := h.purchases.StartPurchase(listingID, buyerID)
	if err != nil {
		log.Printf("Error starting purchase of listing %s: %v", listingID, err)
		switch {
		case errors.Is(err, services.ErrListingSold):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Listing is no longer available",
				"error":   err.Error(),
			})
		case errors.Is(err, services.ErrNoPaymentHandle):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Seller has not set up UPI payments",
				"error":   err.Error(),
			})
		}
		return h.listingError(c, listingID, "Could not start purchase", err)
	}
	return c.JSON(handoff)
}

// ownedListing loads a listing and checks the caller is its seller, writing
// the 404 or 403 response itself when either check fails.
func (h *ListingHandler) ownedListing(c *fiber.Ctx, listingID string) (*models.Listing, bool, error) {
	listing, err := h.service.GetListing(listingID)
	if err != nil {
		return nil, false, h.listingError(c, listingID, "Could not retrieve listing", err)
	}
	if !h.ownsListing(c, listing) {
		return nil, false, forbidden(c)
	}
	return listing, true, nil
}

func (h *ListingHandler) ownsListing(c *fiber.Ctx, listing *models.Listing) bool {
	userID, _ := c.Locals("user_id").(string)
	return userID != "" && listing.SellerID == userID
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Only the seller can change this listing",
	})
}

// listingError maps service errors onto status codes.
func (h *ListingHandler) listingError(c *fiber.Ctx, listingID, message string, err error) error {
	log.Printf("%s %s: %v", message, listingID, err)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Listing with ID %s not found", listingID),
		})
	case errors.Is(err, services.ErrInvalidPrice):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
