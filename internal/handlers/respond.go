package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"booknest/internal/apperr"
	"booknest/internal/logging"
)

// ErrorHandler is the Fiber app error handler. It renders *apperr.Error
// values and framework errors as {message, details?}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return writeError(c, err, nil)
}

// writeError classifies err and writes the matching status and body. extra
// fields are merged into the body.
func writeError(c *fiber.Ctx, err error, extra fiber.Map) error {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	msg, details := apperr.Public(err)

	if status >= fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("kind", kind.String()).Str("path", c.Path()).Msg("request failed")
	}

	body := fiber.Map{"message": msg}
	if len(details) > 0 {
		body["details"] = details
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// invalidBody wraps a body parse failure.
func invalidBody(err error) error {
	return &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid request body", Err: err}
}

// validationFailed converts validator errors into a Validation error with
// one detail per field.
func validationFailed(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Validation failed", err.Error())
	}
	details := make([]string, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return apperr.Validation("Validation failed", details...)
}
