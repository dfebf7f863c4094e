package presenters

import (
	"errors"

	"foodgram/domain"
	"foodgram/internal/logging"
	"foodgram/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	notFoundErrors = []error{
		domain.ErrRecipeNotFound,
		domain.ErrUserNotFound,
		domain.ErrTagNotFound,
		domain.ErrIngredientNotFound,
	}

	unauthorizedErrors = []error{
		domain.ErrUnauthenticated,
		domain.ErrTokenNotFound,
		domain.ErrTokenInvalid,
		domain.ErrTokenExpired,
		domain.ErrTokenRevoked,
	}

	badRequestErrors = []error{
		domain.ErrAlreadyFavorited,
		domain.ErrNotFavorited,
		domain.ErrAlreadyInCart,
		domain.ErrNotInCart,
		domain.ErrShoppingCartEmpty,
		domain.ErrUnsupportedFormat,
		domain.ErrInvalidImage,
		domain.ErrInvalidCredentials,
		domain.ErrSelfSubscription,
		domain.ErrAlreadySubscribed,
		domain.ErrNotSubscribed,
	}
)

func SuccessResponse(c *fiber.Ctx, data any, statusCode int) error {
	return c.Status(statusCode).JSON(data)
}

func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// ErrorResponse renders err. Known domain errors carry their own status;
// anything else is answered with statusCode, and with message alone when
// statusCode is a server error.
func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ValidationMessages(validationErrs))
	}

	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{fieldErr.Field: []string{fieldErr.Message}})
	}

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return detail(c, fiber.StatusForbidden, err.Error())
	case isAny(err, unauthorizedErrors):
		return detail(c, fiber.StatusUnauthorized, err.Error())
	case isAny(err, notFoundErrors):
		return detail(c, fiber.StatusNotFound, err.Error())
	case isAny(err, badRequestErrors):
		return detail(c, fiber.StatusBadRequest, err.Error())
	}

	if statusCode >= fiber.StatusInternalServerError {
		logging.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg(message)
		return detail(c, statusCode, message)
	}
	if err == nil {
		return detail(c, statusCode, message)
	}
	return detail(c, statusCode, message+": "+err.Error())
}

func detail(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{"detail": message})
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
