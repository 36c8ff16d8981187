package handlers

import (
	"errors"
	"log"
	"strconv"

	"edumarket/internal/geo"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// InstitutionHandler serves the bundled institution list and proximity queries.
type InstitutionHandler struct {
	resolver      *geo.Resolver
	defaultRadius float64
	validate      *validator.Validate
}

// NewInstitutionHandler creates a new InstitutionHandler. A non-positive
// defaultRadiusKm falls back to geo.DefaultRadiusKm.
func NewInstitutionHandler(resolver *geo.Resolver, defaultRadiusKm float64) *InstitutionHandler {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = geo.DefaultRadiusKm
	}
	return &InstitutionHandler{
		resolver:      resolver,
		defaultRadius: defaultRadiusKm,
		validate:      newValidator(),
	}
}

// RegisterRoutes registers the institution routes with the Fiber app.
func (h *InstitutionHandler) RegisterRoutes(router fiber.Router) {
	institutionRoutes := router.Group("/institutions")
	institutionRoutes.Get("/", h.HandleGetInstitutions)
	institutionRoutes.Get("/nearby", h.HandleGetNearby)
}

// NearbyQuery holds the query string of GET /institutions/nearby.
type NearbyQuery struct {
	Lat    string  `query:"lat" validate:"required,latitude"`
	Lng    string  `query:"lng" validate:"required,longitude"`
	Radius float64 `query:"radius" validate:"gte=0"`
}

// HandleGetInstitutions returns every institution in bundled order.
func (h *InstitutionHandler) HandleGetInstitutions(c *fiber.Ctx) error {
	return c.JSON(h.resolver.All())
}

// HandleGetNearby returns institutions within the radius, closest first.
func (h *InstitutionHandler) HandleGetNearby(c *fiber.Ctx) error {
	var query NearbyQuery
	if err := c.QueryParser(&query); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid query parameters",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(query); err != nil {
		return validationFailed(c, err)
	}

	// Both parse: the validator already accepted them as coordinates.
	lat, _ := strconv.ParseFloat(query.Lat, 64)
	lng, _ := strconv.ParseFloat(query.Lng, 64)
	radius := query.Radius
	if radius == 0 {
		radius = h.defaultRadius
	}

	nearby, err := h.resolver.Nearby(lat, lng, radius)
	if err != nil {
		log.Printf("Error resolving institutions near %s,%s: %v", query.Lat, query.Lng, err)
		if errors.Is(err, geo.ErrLocationUnavailable) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Location unavailable",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not resolve nearby institutions",
			"error":   err.Error(),
		})
	}
	return c.JSON(nearby)
}
