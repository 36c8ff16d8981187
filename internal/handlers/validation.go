package handlers

import (
	"errors"
	"fmt"
	"log"

	"edumarket/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// newValidator returns a validator with the marketplace's custom rules registered.
func newValidator() *validator.Validate {
	validate := validator.New()
	if err := validate.RegisterValidation("listing_condition", func(fl validator.FieldLevel) bool {
		return models.Condition(fl.Field().String()).Valid()
	}); err != nil {
		log.Printf("Error registering listing_condition validation: %v", err)
	}
	return validate
}

// parseAndValidate binds the request body into req and validates it, writing
// the 400 response itself when either step fails.
func parseAndValidate(c *fiber.Ctx, validate *validator.Validate, req any) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(req); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}
