package types

import "github.com/gofiber/fiber/v2"

// ApiResponse is the standard response envelope for all endpoints.
type ApiResponse struct {
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
}

// Respond writes the envelope with the given status.
func Respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
}

// RespondError maps a domain error to its status and message. Unexpected
// errors get the fallback message so internals never leak to the caller.
func RespondError(c *fiber.Ctx, err error, fallback string) error {
	status := HTTPStatus(err)
	message := fallback
	if IsDomainError(err) {
		message = err.Error()
	}
	return Respond(c, status, message, nil)
}
