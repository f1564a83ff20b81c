package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rideintake/internal/distance"
	"rideintake/internal/domain"
	"rideintake/internal/repository"
	"rideintake/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is returned when a candidate breaks business rules.
type ValidationErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations"`
}

// FieldErrorResponse is returned when a body is structurally invalid.
type FieldErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Server-side failures are reported with fallback so no internal detail leaks.
func respondError(c *gin.Context, err error, fallback string) {
	code := mapErrorToHTTPStatus(err)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(code, ValidationErrorResponse{Error: "Validation failed.", Violations: verr.Violations})
		return
	}

	msg := err.Error()
	switch code {
	case http.StatusNotFound:
		msg = "Not found."
	case http.StatusInternalServerError, http.StatusBadGateway:
		msg = fallback
	}
	c.JSON(code, ErrorResponse{Error: msg})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrInvalidRequestID),
		errors.Is(err, domain.ErrInvalidEnumValue),
		errors.Is(err, distance.ErrNotFound):
		return http.StatusBadRequest

	case errors.Is(err, distance.ErrUpstream):
		return http.StatusBadGateway

	// Store failures, missing configuration and anything unexpected.
	default:
		return http.StatusInternalServerError
	}
}
