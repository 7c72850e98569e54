package middleware

import "github.com/gofiber/fiber/v3"

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// ErrorResponse writes the standard error envelope. Every handler error
// goes through here so clients can rely on the shape.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorBody{Error: errorDetail{Code: code, Message: message}})
}
