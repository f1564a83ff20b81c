package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rideintake/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationRequestSubmitted   NotificationType = "REQUEST_SUBMITTED"
	NotificationPaymentSubmitted   NotificationType = "PAYMENT_SUBMITTED"
	NotificationPaymentConfirmed   NotificationType = "PAYMENT_CONFIRMED"
	NotificationConfirmedUnclaimed NotificationType = "PAYMENT_CONFIRMED_WITHOUT_SUBMISSION"
)

// Admin is the recipient of notifications addressed to the review desk.
const Admin = "admin"

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string // ride request ID or Admin
	Title       string
	Message     string
	Data        map[string]any
	CreatedAt   time.Time
}

// NotificationService records lifecycle notifications. Delivery is a structured
// log line; the most recent notifications are kept in memory for inspection.
type NotificationService struct {
	logger *zap.Logger

	mu     sync.Mutex
	recent []Notification
}

const maxRecentNotifications = 100

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger.Named("notification")}
}

// NotifyRequestSubmitted tells the review desk that a new request is waiting.
func (s *NotificationService) NotifyRequestSubmitted(ctx context.Context, req *domain.RideRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationRequestSubmitted,
		RecipientID: Admin,
		Title:       "New Ride Request",
		Message:     fmt.Sprintf("%s requested a %s trip for %d on %s", req.FullName, req.TripType, req.PartySize, req.PickupDateTime.Format(time.RFC1123)),
		Data: map[string]any{
			"request_id":     req.ID,
			"trip_type":      req.TripType,
			"payment_method": req.PaymentMethod,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentSubmitted tells the review desk that the submitter reports having paid.
func (s *NotificationService) NotifyPaymentSubmitted(ctx context.Context, req *domain.RideRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentSubmitted,
		RecipientID: Admin,
		Title:       "Payment Submitted",
		Message:     fmt.Sprintf("Payment via %s submitted for request %s", req.PaymentMethod, req.ID),
		Data: map[string]any{
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentConfirmed tells the submitter that payment was verified.
func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, req *domain.RideRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentConfirmed,
		RecipientID: req.ID,
		Title:       "Payment Confirmed",
		Message:     "Your payment has been confirmed. Your ride is booked.",
		Data: map[string]any{
			"request_id":   req.ID,
			"confirmed_at": req.PaymentConfirmedAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyConfirmedWithoutSubmission flags a confirmation that was never preceded
// by the submitter reporting payment.
func (s *NotificationService) NotifyConfirmedWithoutSubmission(ctx context.Context, req *domain.RideRequest) error {
	return s.send(ctx, Notification{
		Type:        NotificationConfirmedUnclaimed,
		RecipientID: Admin,
		Title:       "Payment Confirmed Without Submission",
		Message:     fmt.Sprintf("Request %s was confirmed before the submitter reported payment", req.ID),
		Data: map[string]any{
			"request_id": req.ID,
		},
		CreatedAt: time.Now(),
	})
}

// Recent returns the most recent notifications, oldest first.
func (s *NotificationService) Recent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.recent))
	copy(out, s.recent)
	return out
}

// send delivers a notification.
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	notification.ID = uuid.New().String()

	s.mu.Lock()
	s.recent = append(s.recent, notification)
	if len(s.recent) > maxRecentNotifications {
		s.recent = s.recent[len(s.recent)-maxRecentNotifications:]
	}
	s.mu.Unlock()

	s.logger.Info("notification",
		zap.String("id", notification.ID),
		zap.String("type", string(notification.Type)),
		zap.String("recipient", notification.RecipientID),
		zap.String("title", notification.Title),
		zap.String("message", notification.Message),
		zap.Any("data", notification.Data),
	)

	return nil
}
