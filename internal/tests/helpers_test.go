package tests

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"rideintake/internal/domain"
	"rideintake/internal/service"
)

var testNow = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

// validCandidate returns a tourism candidate that passes every rule.
func validCandidate(now time.Time) domain.Candidate {
	dob := now.AddDate(-25, 0, 0)
	pickup := now.Add(60 * time.Hour)
	miles := 30.0
	return domain.Candidate{
		FullName:           "Jane Doe",
		DOB:                &dob,
		TripType:           domain.TripTypeTourismTour,
		PickupAddress:      "A",
		DestinationAddress: "B",
		PickupDateTime:     &pickup,
		PartySize:          2,
		DistanceMiles:      &miles,
		PhotoIDFileName:    "id.jpg",
		SelfieFileName:     "selfie.jpg",
		PaymentMethod:      domain.PaymentMethodZelle,
		AckOnTime:          true,
		AckPayment24h:      true,
		AckCancelFee:       true,
	}
}

func withDistance(c domain.Candidate, miles float64) domain.Candidate {
	c.DistanceMiles = &miles
	return c
}

type testEnv struct {
	repo          *MockRideRequestRepository
	clock         *FakeClock
	notifications *service.NotificationService
	logs          *observer.ObservedLogs
	service       *service.RideRequestService
}

func newTestEnv(opts ...service.Option) *testEnv {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	env := &testEnv{
		repo:          NewMockRideRequestRepository(),
		clock:         NewFakeClock(testNow),
		notifications: service.NewNotificationService(logger),
		logs:          logs,
	}

	all := append([]service.Option{
		service.WithClock(env.clock.Now),
		service.WithLogger(logger),
		service.WithNotificationService(env.notifications),
	}, opts...)
	env.service = service.NewRideRequestService(env.repo, all...)
	return env
}

func (e *testEnv) notificationCount(typ service.NotificationType) int {
	n := 0
	for _, note := range e.notifications.Recent() {
		if note.Type == typ {
			n++
		}
	}
	return n
}
