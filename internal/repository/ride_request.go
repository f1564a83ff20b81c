package repository

import (
	"context"
	"errors"

	"rideintake/internal/domain"
)

// ErrNotFound is returned by lookups and payment updates when no ride request
// has the given ID.
var ErrNotFound = errors.New("ride request not found")

// RideRequestRepository defines the persistence operations for ride requests.
type RideRequestRepository interface {
	// Create persists a new ride request.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a ride request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// UpdatePayment applies a partial payment update atomically and returns
	// the updated record.
	UpdatePayment(ctx context.Context, id string, upd domain.PaymentUpdate) (*domain.RideRequest, error)

	// GetAll retrieves all ride requests, newest first.
	GetAll(ctx context.Context) ([]*domain.RideRequest, error)
}
