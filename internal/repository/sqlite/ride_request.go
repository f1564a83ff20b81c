package sqlite

import (
	"context"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"rideintake/internal/domain"
	"rideintake/internal/repository"
)

const rideRequestColumns = `id, created_at, full_name, dob, trip_type, pickup_address, destination_address,
	pickup_date_time, return_date_time, party_size, distance_miles, photo_id_file_name, selfie_file_name,
	payment_method, ack_on_time, ack_payment_24h, ack_cancel_fee,
	payment_submitted, payment_submitted_at, payment_confirmed, payment_confirmed_at`

// RideRequestRepository is a SQLite implementation of repository.RideRequestRepository.
// Timestamps are stored as Unix nanoseconds in UTC.
type RideRequestRepository struct {
	pool *Pool
}

// NewRideRequestRepository creates a new SQLite ride request repository.
func NewRideRequestRepository(pool *Pool) *RideRequestRepository {
	return &RideRequestRepository{pool: pool}
}

var _ repository.RideRequestRepository = (*RideRequestRepository)(nil)

// Create persists a new ride request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer r.pool.Put(conn)

	return sqlitex.Execute(conn, `INSERT INTO ride_requests (`+rideRequestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				req.ID,
				unixNano(req.CreatedAt),
				req.FullName,
				unixNano(req.DOB),
				string(req.TripType),
				req.PickupAddress,
				req.DestinationAddress,
				unixNano(req.PickupDateTime),
				optionalTime(req.ReturnDateTime),
				req.PartySize,
				optionalFloat(req.DistanceMiles),
				optionalString(req.PhotoIDFileName),
				optionalString(req.SelfieFileName),
				string(req.PaymentMethod),
				boolInt(req.AckOnTime),
				boolInt(req.AckPayment24h),
				boolInt(req.AckCancelFee),
				boolInt(req.PaymentSubmitted),
				optionalTime(req.PaymentSubmittedAt),
				boolInt(req.PaymentConfirmed),
				optionalTime(req.PaymentConfirmedAt),
			},
		})
}

// GetByID retrieves a ride request by ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Put(conn)

	var found *domain.RideRequest
	err = sqlitex.Execute(conn, `SELECT `+rideRequestColumns+` FROM ride_requests WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = scanRideRequest(stmt)
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

// UpdatePayment applies the payment update with a single UPDATE ... RETURNING.
func (r *RideRequestRepository) UpdatePayment(ctx context.Context, id string, upd domain.PaymentUpdate) (*domain.RideRequest, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Put(conn)

	var updated *domain.RideRequest
	err = sqlitex.Execute(conn, `UPDATE ride_requests
		SET payment_submitted = payment_submitted OR ?2,
			payment_submitted_at = CASE WHEN ?2 THEN COALESCE(payment_submitted_at, ?3) ELSE payment_submitted_at END,
			payment_confirmed = payment_confirmed OR ?4,
			payment_confirmed_at = CASE WHEN ?4 THEN ?5 ELSE payment_confirmed_at END
		WHERE id = ?1
		RETURNING `+rideRequestColumns,
		&sqlitex.ExecOptions{
			Args: []any{
				id,
				boolInt(upd.SubmittedAt != nil),
				optionalTime(upd.SubmittedAt),
				boolInt(upd.ConfirmedAt != nil),
				optionalTime(upd.ConfirmedAt),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				updated = scanRideRequest(stmt)
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, repository.ErrNotFound
	}
	return updated, nil
}

// GetAll retrieves all ride requests, newest first.
func (r *RideRequestRepository) GetAll(ctx context.Context) ([]*domain.RideRequest, error) {
	conn, err := r.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.Put(conn)

	var requests []*domain.RideRequest
	err = sqlitex.Execute(conn, `SELECT `+rideRequestColumns+` FROM ride_requests ORDER BY created_at DESC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				requests = append(requests, scanRideRequest(stmt))
				return nil
			},
		})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func scanRideRequest(stmt *sqlite.Stmt) *domain.RideRequest {
	req := &domain.RideRequest{
		ID:                 stmt.ColumnText(0),
		CreatedAt:          fromUnixNano(stmt.ColumnInt64(1)),
		FullName:           stmt.ColumnText(2),
		DOB:                fromUnixNano(stmt.ColumnInt64(3)),
		TripType:           domain.TripType(stmt.ColumnText(4)),
		PickupAddress:      stmt.ColumnText(5),
		DestinationAddress: stmt.ColumnText(6),
		PickupDateTime:     fromUnixNano(stmt.ColumnInt64(7)),
		ReturnDateTime:     columnTime(stmt, 8),
		PartySize:          stmt.ColumnInt(9),
		PhotoIDFileName:    stmt.ColumnText(11),
		SelfieFileName:     stmt.ColumnText(12),
		PaymentMethod:      domain.PaymentMethod(stmt.ColumnText(13)),
		AckOnTime:          stmt.ColumnInt64(14) != 0,
		AckPayment24h:      stmt.ColumnInt64(15) != 0,
		AckCancelFee:       stmt.ColumnInt64(16) != 0,
		PaymentSubmitted:   stmt.ColumnInt64(17) != 0,
		PaymentSubmittedAt: columnTime(stmt, 18),
		PaymentConfirmed:   stmt.ColumnInt64(19) != 0,
		PaymentConfirmedAt: columnTime(stmt, 20),
	}
	if !stmt.ColumnIsNull(10) {
		miles := stmt.ColumnFloat(10)
		req.DistanceMiles = &miles
	}
	return req
}

func unixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func columnTime(stmt *sqlite.Stmt, col int) *time.Time {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	t := fromUnixNano(stmt.ColumnInt64(col))
	return &t
}

func optionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return unixNano(*t)
}

func optionalFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
