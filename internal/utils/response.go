package utils

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/recipe-board/internal/types"
)

// ErrorResponse sends the standard error envelope
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Error:     message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
	})
}

// CustomErrorResponse sends the envelope for a CustomError, including details
func CustomErrorResponse(c *fiber.Ctx, e *types.CustomError) error {
	return c.Status(e.Code).JSON(ErrorResponseStruct{
		Status:    e.Code,
		Message:   e.Message,
		Error:     e.Message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      e.Type,
		Details:   e.Details,
	})
}

// HandleError renders err. CustomErrors keep their status; anything else is
// an internal error. Server failures are logged with their kind and route.
func HandleError(c *fiber.Ctx, err error) error {
	var ce *types.CustomError
	if !errors.As(err, &ce) {
		ce = types.NewInternal("Internal server error", err)
	}
	if ce.Code >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed [%s]: %s (%v)", c.Method(), c.OriginalURL(), ce.Type, ce.Message, ce.Details)
	} else if ce.Type == types.TypeNotFound {
		log.Printf("%s %s denied [%s]: %s", c.Method(), c.OriginalURL(), ce.Type, ce.Message)
	}
	return CustomErrorResponse(c, ce)
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, types.TypeNotFound)
}

// MutationSuccessResponse sends {success: true}
func MutationSuccessResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(MutationSuccessStruct{Success: true})
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// MutationSuccessStruct defines the schema for mutation success responses
type MutationSuccessStruct struct {
	Success bool `json:"success"`
}
