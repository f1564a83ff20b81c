package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rideintake/internal/domain"
	"rideintake/internal/service"
)

// RideRequestHandler handles the public ride request endpoints.
type RideRequestHandler struct {
	service  *service.RideRequestService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewRideRequestHandler creates a new RideRequestHandler.
func NewRideRequestHandler(svc *service.RideRequestService, validate *validator.Validate, logger *zap.Logger) *RideRequestHandler {
	return &RideRequestHandler{
		service:  svc,
		validate: validate,
		logger:   logger,
	}
}

// RideRequestBody is the HTTP request body for validating or submitting a ride request.
type RideRequestBody struct {
	FullName           string   `json:"full_name"`
	DOB                string   `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	TripType           string   `json:"trip_type" validate:"required"`
	PickupAddress      string   `json:"pickup_address"`
	DestinationAddress string   `json:"destination_address"`
	PickupDateTime     string   `json:"pickup_date_time" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ReturnDateTime     string   `json:"return_date_time,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PartySize          *int     `json:"party_size,omitempty"` // 1 when omitted
	DistanceMiles      *float64 `json:"distance_miles,omitempty" validate:"omitempty,gte=0"`
	PhotoIDFileName    string   `json:"photo_id_file_name,omitempty"`
	SelfieFileName     string   `json:"selfie_file_name,omitempty"`
	PaymentMethod      string   `json:"payment_method" validate:"required"`
	AckOnTime          bool     `json:"ack_on_time"`
	AckPayment24h      bool     `json:"ack_payment_24h"`
	AckCancelFee       bool     `json:"ack_cancel_fee"`
}

// ValidateResponse is the HTTP response for a validation preview.
type ValidateResponse struct {
	OK         bool     `json:"ok"`
	Violations []string `json:"violations"`
}

// SubmitResponse is the HTTP response for a created ride request.
type SubmitResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// PaymentStatusResponse is the public view of a request's payment state.
type PaymentStatusResponse struct {
	ID                 string     `json:"id"`
	PaymentSubmitted   bool       `json:"payment_submitted"`
	PaymentSubmittedAt *time.Time `json:"payment_submitted_at"`
	Status             string     `json:"status"`
}

// Validate handles POST /api/requests/validate
func (h *RideRequestHandler) Validate(c *gin.Context) {
	candidate, ok := h.bindCandidate(c)
	if !ok {
		return
	}

	violations := h.service.Validate(c.Request.Context(), candidate)
	respondJSON(c, http.StatusOK, ValidateResponse{
		OK:         len(violations) == 0,
		Violations: violations,
	})
}

// Submit handles POST /api/requests
func (h *RideRequestHandler) Submit(c *gin.Context) {
	candidate, ok := h.bindCandidate(c)
	if !ok {
		return
	}

	req, err := h.service.Submit(c.Request.Context(), candidate)
	if err != nil {
		respondError(c, err, "Server error creating request.")
		return
	}

	respondJSON(c, http.StatusCreated, SubmitResponse{OK: true, ID: req.ID})
}

// MarkPaymentSubmitted handles POST /api/requests/:id/payment-submitted
func (h *RideRequestHandler) MarkPaymentSubmitted(c *gin.Context) {
	req, err := h.service.MarkPaymentSubmitted(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to mark payment submitted.")
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"ok": true,
		"request": PaymentStatusResponse{
			ID:                 req.ID,
			PaymentSubmitted:   req.PaymentSubmitted,
			PaymentSubmittedAt: req.PaymentSubmittedAt,
			Status:             string(req.State()),
		},
	})
}

// bindCandidate decodes and structurally checks the body. It writes the error
// response itself and reports false when the body is unusable.
func (h *RideRequestHandler) bindCandidate(c *gin.Context) (domain.Candidate, bool) {
	var body RideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Debug("failed to decode ride request", zap.Error(err))
		respondJSON(c, http.StatusBadRequest, FieldErrorResponse{Error: "invalid request body"})
		return domain.Candidate{}, false
	}

	if err := h.validate.Struct(body); err != nil {
		h.logger.Debug("ride request body rejected", zap.Error(err))
		respondJSON(c, http.StatusBadRequest, FieldErrorResponse{Error: "invalid request body", Fields: fieldErrors(err)})
		return domain.Candidate{}, false
	}

	candidate, err := body.toCandidate()
	if err != nil {
		respondError(c, err, "invalid request body")
		return domain.Candidate{}, false
	}
	return candidate, true
}

// toCandidate converts a structurally valid body. Date formats have already
// been checked by the validator.
func (b RideRequestBody) toCandidate() (domain.Candidate, error) {
	tripType, err := domain.ParseTripType(b.TripType)
	if err != nil {
		return domain.Candidate{}, err
	}
	paymentMethod, err := domain.ParsePaymentMethod(b.PaymentMethod)
	if err != nil {
		return domain.Candidate{}, err
	}

	partySize := 1
	if b.PartySize != nil {
		partySize = *b.PartySize
	}

	return domain.Candidate{
		FullName:           b.FullName,
		DOB:                parseOptional(dateLayout, b.DOB),
		TripType:           tripType,
		PickupAddress:      b.PickupAddress,
		DestinationAddress: b.DestinationAddress,
		PickupDateTime:     parseOptional(dateTimeLayout, b.PickupDateTime),
		ReturnDateTime:     parseOptional(dateTimeLayout, b.ReturnDateTime),
		PartySize:          partySize,
		DistanceMiles:      b.DistanceMiles,
		PhotoIDFileName:    b.PhotoIDFileName,
		SelfieFileName:     b.SelfieFileName,
		PaymentMethod:      paymentMethod,
		AckOnTime:          b.AckOnTime,
		AckPayment24h:      b.AckPayment24h,
		AckCancelFee:       b.AckCancelFee,
	}, nil
}

func parseOptional(layout, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return nil
	}
	return &t
}
