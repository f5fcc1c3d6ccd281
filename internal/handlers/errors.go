package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// serviceError maps the services error taxonomy onto HTTP statuses. Guard
// failures and bad inputs are client errors; anything unrecognised is
// internal.
func serviceError(c *fiber.Ctx, message string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrNotOwner):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrWrongState),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrRefundWindowExpired),
		errors.Is(err, services.ErrInvalidRefundItems):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationError renders validator failures field by field.
func validationError(c *fiber.Ctx, err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
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
