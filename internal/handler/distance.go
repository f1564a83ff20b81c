package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rideintake/internal/distance"
	"rideintake/internal/service"
)

// DistanceHandler handles distance lookups.
type DistanceHandler struct {
	resolver service.DistanceResolver // nil when no provider is configured
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDistanceHandler creates a new DistanceHandler.
func NewDistanceHandler(resolver service.DistanceResolver, validate *validator.Validate, logger *zap.Logger) *DistanceHandler {
	return &DistanceHandler{resolver: resolver, validate: validate, logger: logger}
}

// DistanceRequest is the HTTP request body for a distance lookup.
type DistanceRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

// Resolve handles POST /api/distance
func (h *DistanceHandler) Resolve(c *gin.Context) {
	var req DistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "origin and destination are required"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondJSON(c, http.StatusBadRequest, FieldErrorResponse{Error: "origin and destination are required", Fields: fieldErrors(err)})
		return
	}

	if h.resolver == nil {
		respondError(c, distance.ErrNotConfigured, "GOOGLE_MAPS_API_KEY is not set.")
		return
	}

	result, err := h.resolver.Resolve(c.Request.Context(), req.Origin, req.Destination)
	if err != nil {
		h.logger.Warn("distance lookup failed", zap.Error(err))
		fallback := "Distance lookup failed."
		if errors.Is(err, distance.ErrNotConfigured) {
			fallback = "GOOGLE_MAPS_API_KEY is not set."
		}
		respondError(c, err, fallback)
		return
	}

	respondJSON(c, http.StatusOK, result)
}
