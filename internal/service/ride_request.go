package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideintake/internal/distance"
	"rideintake/internal/domain"
	"rideintake/internal/repository"
)

// DistanceResolver resolves the driving distance between two addresses.
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination string) (*distance.Result, error)
}

// RideRequestService drives a ride request through its lifecycle:
// CREATED -> PAYMENT_SUBMITTED -> PAYMENT_CONFIRMED.
type RideRequestService struct {
	repo                repository.RideRequestRepository
	resolver            DistanceResolver
	notificationService *NotificationService
	logger              *zap.Logger
	now                 func() time.Time
}

// Option configures a RideRequestService.
type Option func(*RideRequestService)

// WithDistanceResolver lets Validate and Submit fill in a missing distance.
func WithDistanceResolver(r DistanceResolver) Option {
	return func(s *RideRequestService) { s.resolver = r }
}

// WithNotificationService sends lifecycle notifications.
func WithNotificationService(n *NotificationService) Option {
	return func(s *RideRequestService) { s.notificationService = n }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *RideRequestService) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *RideRequestService) { s.now = now }
}

// NewRideRequestService creates a new RideRequestService.
func NewRideRequestService(repo repository.RideRequestRepository, opts ...Option) *RideRequestService {
	s := &RideRequestService{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate returns the violations of c. When a tourism candidate has no
// distance, a configured resolver is tried first; a failed lookup leaves the
// distance unresolved and Validate reports it.
func (s *RideRequestService) Validate(ctx context.Context, c domain.Candidate) []string {
	return Validate(c, s.resolveDistance(ctx, c), s.now())
}

// Submit validates c and persists it in the CREATED state.
func (s *RideRequestService) Submit(ctx context.Context, c domain.Candidate) (*domain.RideRequest, error) {
	miles := s.resolveDistance(ctx, c)
	now := s.now()

	if violations := Validate(c, miles, now); len(violations) > 0 {
		s.logger.Info("ride request rejected", zap.Strings("violations", violations))
		return nil, &ValidationError{Violations: violations}
	}

	req := &domain.RideRequest{
		ID:                 uuid.New().String(),
		CreatedAt:          now,
		FullName:           strings.TrimSpace(c.FullName),
		DOB:                *c.DOB,
		TripType:           c.TripType,
		PickupAddress:      strings.TrimSpace(c.PickupAddress),
		DestinationAddress: strings.TrimSpace(c.DestinationAddress),
		PickupDateTime:     *c.PickupDateTime,
		ReturnDateTime:     c.ReturnDateTime,
		PartySize:          c.PartySize,
		DistanceMiles:      roundMiles(miles),
		PhotoIDFileName:    c.PhotoIDFileName,
		SelfieFileName:     c.SelfieFileName,
		PaymentMethod:      c.PaymentMethod,
		AckOnTime:          c.AckOnTime,
		AckPayment24h:      c.AckPayment24h,
		AckCancelFee:       c.AckCancelFee,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create ride request", zap.Error(err))
		return nil, &StoreError{Op: "create", Err: err}
	}

	s.logger.Info("ride request created",
		zap.String("request_id", req.ID),
		zap.String("trip_type", string(req.TripType)),
		zap.String("payment_method", string(req.PaymentMethod)),
	)
	if s.notificationService != nil {
		_ = s.notificationService.NotifyRequestSubmitted(ctx, req)
	}

	return req, nil
}

// MarkPaymentSubmitted records that the submitter has sent payment. Calling it
// again keeps the first timestamp.
func (s *RideRequestService) MarkPaymentSubmitted(ctx context.Context, id string) (*domain.RideRequest, error) {
	if id == "" {
		return nil, ErrInvalidRequestID
	}

	at := s.now()
	req, err := s.repo.UpdatePayment(ctx, id, domain.PaymentUpdate{SubmittedAt: &at})
	if err != nil {
		return nil, s.storeErr("mark payment submitted", id, err)
	}

	s.logger.Info("payment submitted", zap.String("request_id", id))
	if s.notificationService != nil {
		_ = s.notificationService.NotifyPaymentSubmitted(ctx, req)
	}

	return req, nil
}

// ConfirmPayment marks payment as verified. Every call re-stamps
// PaymentConfirmedAt. Confirming a request whose payment was never submitted is
// allowed but reported as an anomaly.
func (s *RideRequestService) ConfirmPayment(ctx context.Context, id string) (*domain.RideRequest, error) {
	if id == "" {
		return nil, ErrInvalidRequestID
	}

	at := s.now()
	req, err := s.repo.UpdatePayment(ctx, id, domain.PaymentUpdate{ConfirmedAt: &at})
	if err != nil {
		return nil, s.storeErr("confirm payment", id, err)
	}

	if !req.PaymentSubmitted {
		s.logger.Warn("payment confirmed without submission", zap.String("request_id", id))
		if s.notificationService != nil {
			_ = s.notificationService.NotifyConfirmedWithoutSubmission(ctx, req)
		}
	}

	s.logger.Info("payment confirmed", zap.String("request_id", id))
	if s.notificationService != nil {
		_ = s.notificationService.NotifyPaymentConfirmed(ctx, req)
	}

	return req, nil
}

// Get retrieves a single ride request.
func (s *RideRequestService) Get(ctx context.Context, id string) (*domain.RideRequest, error) {
	if id == "" {
		return nil, ErrInvalidRequestID
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get", id, err)
	}
	return req, nil
}

// List returns all ride requests, newest first.
func (s *RideRequestService) List(ctx context.Context) ([]*domain.RideRequest, error) {
	requests, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list ride requests", zap.Error(err))
		return nil, &StoreError{Op: "list", Err: err}
	}
	return requests, nil
}

// storeErr passes ErrNotFound through and wraps anything else as a StoreError.
func (s *RideRequestService) storeErr(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.logger.Error("ride request store failure", zap.String("op", op), zap.String("request_id", id), zap.Error(err))
	return &StoreError{Op: op, Err: err}
}

func (s *RideRequestService) resolveDistance(ctx context.Context, c domain.Candidate) *float64 {
	if c.DistanceMiles != nil || s.resolver == nil || c.TripType != domain.TripTypeTourismTour {
		return c.DistanceMiles
	}
	if strings.TrimSpace(c.PickupAddress) == "" || strings.TrimSpace(c.DestinationAddress) == "" {
		return nil
	}

	result, err := s.resolver.Resolve(ctx, strings.TrimSpace(c.PickupAddress), strings.TrimSpace(c.DestinationAddress))
	if err != nil {
		s.logger.Debug("distance lookup failed", zap.Error(err))
		return nil
	}
	return &result.Miles
}

func roundMiles(miles *float64) *float64 {
	if miles == nil || math.IsNaN(*miles) || math.IsInf(*miles, 0) {
		return nil
	}
	rounded := math.Round(*miles*10) / 10
	return &rounded
}
