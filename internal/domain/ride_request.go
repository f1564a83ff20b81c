package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEnumValue is returned when a trip type or payment method string is not recognized.
var ErrInvalidEnumValue = errors.New("invalid enum value")

// TripType represents the purpose of a requested trip.
type TripType string

const (
	TripTypeWorkJob     TripType = "WORK_JOB"
	TripTypeTourismTour TripType = "TOURISM_TOUR"
)

// PaymentMethod represents how the submitter will pay.
type PaymentMethod string

const (
	PaymentMethodZelle   PaymentMethod = "ZELLE"
	PaymentMethodCashApp PaymentMethod = "CASHAPP"
	PaymentMethodPayPal  PaymentMethod = "PAYPAL"
)

// LifecycleState is derived from the payment flags of a request.
type LifecycleState string

const (
	StateDraft            LifecycleState = "DRAFT" // client side only, never persisted
	StateCreated          LifecycleState = "CREATED"
	StatePaymentSubmitted LifecycleState = "PAYMENT_SUBMITTED"
	StatePaymentConfirmed LifecycleState = "PAYMENT_CONFIRMED"
)

// ParseTripType accepts the canonical value or its display label.
func ParseTripType(s string) (TripType, error) {
	switch s {
	case "WORK_JOB", "Work/Job":
		return TripTypeWorkJob, nil
	case "TOURISM_TOUR", "Tourism/Tour":
		return TripTypeTourismTour, nil
	default:
		return "", fmt.Errorf("trip type %q: %w", s, ErrInvalidEnumValue)
	}
}

// ParsePaymentMethod accepts the canonical value or its display label.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch s {
	case "ZELLE", "Zelle":
		return PaymentMethodZelle, nil
	case "CASHAPP", "CashApp":
		return PaymentMethodCashApp, nil
	case "PAYPAL", "PayPal":
		return PaymentMethodPayPal, nil
	default:
		return "", fmt.Errorf("payment method %q: %w", s, ErrInvalidEnumValue)
	}
}

// Candidate is a ride request that has not been persisted yet.
// Absent optional values are nil.
type Candidate struct {
	FullName           string
	DOB                *time.Time
	TripType           TripType
	PickupAddress      string
	DestinationAddress string
	PickupDateTime     *time.Time
	ReturnDateTime     *time.Time
	PartySize          int
	DistanceMiles      *float64
	PhotoIDFileName    string
	SelfieFileName     string
	PaymentMethod      PaymentMethod
	AckOnTime          bool
	AckPayment24h      bool
	AckCancelFee       bool
}

// RideRequest represents a persisted trip request.
type RideRequest struct {
	ID                 string
	CreatedAt          time.Time
	FullName           string
	DOB                time.Time
	TripType           TripType
	PickupAddress      string
	DestinationAddress string
	PickupDateTime     time.Time
	ReturnDateTime     *time.Time
	PartySize          int
	DistanceMiles      *float64 // advisory, never re-validated after creation
	PhotoIDFileName    string
	SelfieFileName     string
	PaymentMethod      PaymentMethod
	AckOnTime          bool
	AckPayment24h      bool
	AckCancelFee       bool
	PaymentSubmitted   bool
	PaymentSubmittedAt *time.Time
	PaymentConfirmed   bool
	PaymentConfirmedAt *time.Time
}

// State derives the lifecycle state from the payment flags.
func (r *RideRequest) State() LifecycleState {
	switch {
	case r.PaymentConfirmed:
		return StatePaymentConfirmed
	case r.PaymentSubmitted:
		return StatePaymentSubmitted
	default:
		return StateCreated
	}
}

// PaymentUpdate is a partial update of the payment fields of a request.
// Nil fields are left untouched.
type PaymentUpdate struct {
	// SubmittedAt sets PaymentSubmitted and stamps PaymentSubmittedAt only if it is unset.
	SubmittedAt *time.Time
	// ConfirmedAt sets PaymentConfirmed and always overwrites PaymentConfirmedAt.
	ConfirmedAt *time.Time
}

// Apply applies the update to r in place. Stores that cannot express the
// update in a single statement use this under their own lock.
func (u PaymentUpdate) Apply(r *RideRequest) {
	if u.SubmittedAt != nil {
		r.PaymentSubmitted = true
		if r.PaymentSubmittedAt == nil {
			at := *u.SubmittedAt
			r.PaymentSubmittedAt = &at
		}
	}
	if u.ConfirmedAt != nil {
		at := *u.ConfirmedAt
		r.PaymentConfirmed = true
		r.PaymentConfirmedAt = &at
	}
}
