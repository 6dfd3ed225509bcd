package serverutils

import (
	"errors"

	"chatrelay-be/internal/auth"
	"chatrelay-be/internal/coordinator"
	"chatrelay-be/internal/gateway"
	"chatrelay-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{auth.ErrMissingFields, fiber.StatusBadRequest},
	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{auth.ErrNotAuthenticated, fiber.StatusUnauthorized},
	{auth.ErrUnconfirmed, fiber.StatusForbidden},
	{auth.ErrAlreadyRegistered, fiber.StatusConflict},
	{auth.ErrInvalidConfirmation, fiber.StatusBadRequest},
	{coordinator.ErrMissingName, fiber.StatusBadRequest},
	{coordinator.ErrMissingContent, fiber.StatusBadRequest},
	{coordinator.ErrInvalidRole, fiber.StatusBadRequest},
	{coordinator.ErrInvalidWebhookURL, fiber.StatusBadRequest},
	{coordinator.ErrChatbotNotFound, fiber.StatusNotFound},
	{coordinator.ErrSessionNotFound, fiber.StatusNotFound},
	{coordinator.ErrLastChatbot, fiber.StatusConflict},
	{coordinator.ErrNotLoaded, fiber.StatusConflict},
	{coordinator.ErrClosed, fiber.StatusServiceUnavailable},
	{service.ErrSettingsLocked, fiber.StatusForbidden},
}

var failureStatus = map[gateway.Kind]int{
	gateway.KindNotAuthenticated: fiber.StatusUnauthorized,
	gateway.KindNotFound:         fiber.StatusNotFound,
	gateway.KindConstraint:       fiber.StatusConflict,
	gateway.KindValidation:       fiber.StatusBadRequest,
	gateway.KindTransport:        fiber.StatusBadGateway,
	gateway.KindUnconfigured:     fiber.StatusServiceUnavailable,
}

// StatusOf maps an error returned by a handler to an HTTP status.
func StatusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}
	var failure *gateway.Failure
	if errors.As(err, &failure) {
		if status, ok := failureStatus[failure.Kind]; ok {
			return status
		}
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandlerMiddleware renders handler errors in the response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusOf(err)
		message := err.Error()
		if status == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		body := ErrorResponse(status, message)
		var ve *ValidationError
		if errors.As(err, &ve) {
			body["errors"] = ve.Fields
		}
		return ctx.Status(status).JSON(body)
	}
}
