package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rideintake/internal/domain"
	"rideintake/internal/repository"
)

const rideRequestColumns = `id, created_at, full_name, dob, trip_type, pickup_address, destination_address,
	pickup_date_time, return_date_time, party_size, distance_miles, photo_id_file_name, selfie_file_name,
	payment_method, ack_on_time, ack_payment_24h, ack_cancel_fee,
	payment_submitted, payment_submitted_at, payment_confirmed, payment_confirmed_at`

// RideRequestRepository is a PostgreSQL implementation of repository.RideRequestRepository.
type RideRequestRepository struct {
	q Querier
}

// NewRideRequestRepository creates a new PostgreSQL ride request repository.
func NewRideRequestRepository(db *sql.DB) *RideRequestRepository {
	return &RideRequestRepository{q: db}
}

// NewRideRequestRepositoryWithTx creates a ride request repository using a transaction.
func NewRideRequestRepositoryWithTx(tx *sql.Tx) *RideRequestRepository {
	return &RideRequestRepository{q: tx}
}

var _ repository.RideRequestRepository = (*RideRequestRepository)(nil)

// Create persists a new ride request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO ride_requests (` + rideRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.CreatedAt,
		req.FullName,
		req.DOB,
		string(req.TripType),
		req.PickupAddress,
		req.DestinationAddress,
		req.PickupDateTime,
		nullTime(req.ReturnDateTime),
		req.PartySize,
		nullFloat(req.DistanceMiles),
		nullString(req.PhotoIDFileName),
		nullString(req.SelfieFileName),
		string(req.PaymentMethod),
		req.AckOnTime,
		req.AckPayment24h,
		req.AckCancelFee,
		req.PaymentSubmitted,
		nullTime(req.PaymentSubmittedAt),
		req.PaymentConfirmed,
		nullTime(req.PaymentConfirmedAt),
	)

	return err
}

// GetByID retrieves a ride request by ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideRequestColumns + ` FROM ride_requests WHERE id = $1`

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// UpdatePayment applies the payment update in a single statement so concurrent
// callers never observe a half-applied update. The submitted timestamp is kept
// if already set; the confirmed timestamp is overwritten.
func (r *RideRequestRepository) UpdatePayment(ctx context.Context, id string, upd domain.PaymentUpdate) (*domain.RideRequest, error) {
	query := `
		UPDATE ride_requests
		SET payment_submitted = payment_submitted OR $2,
			payment_submitted_at = CASE WHEN $2 THEN COALESCE(payment_submitted_at, $3) ELSE payment_submitted_at END,
			payment_confirmed = payment_confirmed OR $4,
			payment_confirmed_at = CASE WHEN $4 THEN $5 ELSE payment_confirmed_at END
		WHERE id = $1
		RETURNING ` + rideRequestColumns

	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query,
		id,
		upd.SubmittedAt != nil,
		nullTime(upd.SubmittedAt),
		upd.ConfirmedAt != nil,
		nullTime(upd.ConfirmedAt),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// GetAll retrieves all ride requests, newest first.
func (r *RideRequestRepository) GetAll(ctx context.Context) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideRequestColumns + ` FROM ride_requests ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.RideRequest
	for rows.Next() {
		req, err := scanRideRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRideRequest(row rowScanner) (*domain.RideRequest, error) {
	var req domain.RideRequest
	var tripType, paymentMethod string
	var returnDateTime, submittedAt, confirmedAt sql.NullTime
	var distanceMiles sql.NullFloat64
	var photoID, selfie sql.NullString

	if err := row.Scan(
		&req.ID,
		&req.CreatedAt,
		&req.FullName,
		&req.DOB,
		&tripType,
		&req.PickupAddress,
		&req.DestinationAddress,
		&req.PickupDateTime,
		&returnDateTime,
		&req.PartySize,
		&distanceMiles,
		&photoID,
		&selfie,
		&paymentMethod,
		&req.AckOnTime,
		&req.AckPayment24h,
		&req.AckCancelFee,
		&req.PaymentSubmitted,
		&submittedAt,
		&req.PaymentConfirmed,
		&confirmedAt,
	); err != nil {
		return nil, err
	}

	req.TripType = domain.TripType(tripType)
	req.PaymentMethod = domain.PaymentMethod(paymentMethod)
	req.ReturnDateTime = timePtr(returnDateTime)
	req.PaymentSubmittedAt = timePtr(submittedAt)
	req.PaymentConfirmedAt = timePtr(confirmedAt)
	if distanceMiles.Valid {
		miles := distanceMiles.Float64
		req.DistanceMiles = &miles
	}
	req.PhotoIDFileName = photoID.String
	req.SelfieFileName = selfie.String

	return &req, nil
}
