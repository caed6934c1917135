package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// APIResponse is the envelope every JSON endpoint answers with. Data is
// omitted on errors; Message is omitted when the payload speaks for itself.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a success envelope. A zero status defaults to 200 OK.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, APIResponse{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure envelope. A zero status defaults to 500.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, APIResponse{
		Status:  statusError,
		Message: message,
	})
}
