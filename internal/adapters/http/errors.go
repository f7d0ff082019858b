package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/densitymap/internal/core/domain"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// domainErrors maps usecase sentinels to responses. An empty message means
// the wrapped error text is shown to the client.
var domainErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{domain.ErrMapNotFound, fiber.StatusNotFound, "not_found", "map not found"},
	{domain.ErrNoActiveLayer, fiber.StatusNotFound, "not_found", "map has no active density layer"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "bad_request", ""},
}

// errFromDomain answers with the response registered for err, or a logged 500.
func errFromDomain(c *fiber.Ctx, err error) error {
	for _, m := range domainErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		return newError(c, m.status, m.code, msg)
	}

	LoggerFromCtx(c.UserContext()).Error("request failed", "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", err.Error())
}
