package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideintake/internal/domain"
	"rideintake/internal/service"
)

// AdminHandler handles the administrative review endpoints.
type AdminHandler struct {
	service *service.RideRequestService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.RideRequestService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// RideRequestResponse is the admin view of a ride request.
type RideRequestResponse struct {
	ID                 string     `json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	Status             string     `json:"status"`
	FullName           string     `json:"full_name"`
	DOB                string     `json:"dob"`
	TripType           string     `json:"trip_type"`
	PickupAddress      string     `json:"pickup_address"`
	DestinationAddress string     `json:"destination_address"`
	PickupDateTime     time.Time  `json:"pickup_date_time"`
	ReturnDateTime     *time.Time `json:"return_date_time"`
	PartySize          int        `json:"party_size"`
	DistanceMiles      *float64   `json:"distance_miles"`
	PhotoIDFileName    string     `json:"photo_id_file_name"`
	SelfieFileName     string     `json:"selfie_file_name"`
	PaymentMethod      string     `json:"payment_method"`
	AckOnTime          bool       `json:"ack_on_time"`
	AckPayment24h      bool       `json:"ack_payment_24h"`
	AckCancelFee       bool       `json:"ack_cancel_fee"`
	PaymentSubmitted   bool       `json:"payment_submitted"`
	PaymentSubmittedAt *time.Time `json:"payment_submitted_at"`
	PaymentConfirmed   bool       `json:"payment_confirmed"`
	PaymentConfirmedAt *time.Time `json:"payment_confirmed_at"`
}

func toRideRequestResponse(r *domain.RideRequest) RideRequestResponse {
	return RideRequestResponse{
		ID:                 r.ID,
		CreatedAt:          r.CreatedAt,
		Status:             string(r.State()),
		FullName:           r.FullName,
		DOB:                r.DOB.Format(dateLayout),
		TripType:           string(r.TripType),
		PickupAddress:      r.PickupAddress,
		DestinationAddress: r.DestinationAddress,
		PickupDateTime:     r.PickupDateTime,
		ReturnDateTime:     r.ReturnDateTime,
		PartySize:          r.PartySize,
		DistanceMiles:      r.DistanceMiles,
		PhotoIDFileName:    r.PhotoIDFileName,
		SelfieFileName:     r.SelfieFileName,
		PaymentMethod:      string(r.PaymentMethod),
		AckOnTime:          r.AckOnTime,
		AckPayment24h:      r.AckPayment24h,
		AckCancelFee:       r.AckCancelFee,
		PaymentSubmitted:   r.PaymentSubmitted,
		PaymentSubmittedAt: r.PaymentSubmittedAt,
		PaymentConfirmed:   r.PaymentConfirmed,
		PaymentConfirmedAt: r.PaymentConfirmedAt,
	}
}

// List handles GET /api/admin/requests
func (h *AdminHandler) List(c *gin.Context) {
	requests, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load requests.")
		return
	}

	rows := make([]RideRequestResponse, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, toRideRequestResponse(r))
	}

	respondJSON(c, http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// Get handles GET /api/admin/requests/:id
func (h *AdminHandler) Get(c *gin.Context) {
	req, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to load request.")
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ok": true, "request": toRideRequestResponse(req)})
}

// ConfirmPayment handles POST /api/admin/requests/:id/confirm-payment
func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	req, err := h.service.ConfirmPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to confirm payment.")
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"ok": true, "request": toRideRequestResponse(req)})
}
