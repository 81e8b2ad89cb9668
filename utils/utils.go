package utils

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse renders err as {"message", "field"?} with the status of its kind.
// Anything that is not an AppError is logged in full and answered with a generic 500.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		response := fiber.Map{
			"message": appErr.Message,
		}
		if appErr.Field != "" {
			response["field"] = appErr.Field
		}
		return c.Status(appErr.Kind.HTTPStatus()).JSON(response)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"message": fiberErr.Message,
		})
	}

	LogError("unhandled_error", err, map[string]interface{}{
		"method":     c.Method(),
		"path":       c.Path(),
		"request_id": c.Locals("requestid"),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}

// SuccessResponse is the body of endpoints that acknowledge without returning data
func SuccessResponse() fiber.Map {
	return fiber.Map{
		"success": true,
	}
}

// ParseID parses a route id. Malformed ids are reported as missing resources.
func ParseID(s, resource string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, NewNotFoundError(resource + " not found")
	}
	return uint(id), nil
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
