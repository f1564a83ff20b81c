package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rideintake/internal/domain"
)

var now = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func goodCandidate() domain.Candidate {
	dob := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	pickup := now.Add(60 * time.Hour)
	return domain.Candidate{
		FullName:           "Jane Doe",
		DOB:                &dob,
		TripType:           domain.TripTypeWorkJob,
		PickupAddress:      "A",
		DestinationAddress: "B",
		PickupDateTime:     &pickup,
		PartySize:          1,
		PhotoIDFileName:    "id.png",
		SelfieFileName:     "selfie.png",
		PaymentMethod:      domain.PaymentMethodCashApp,
		AckOnTime:          true,
		AckPayment24h:      true,
		AckCancelFee:       true,
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestValidate_ValidCandidate(t *testing.T) {
	violations := Validate(goodCandidate(), nil, now)
	assert.NotNil(t, violations)
	assert.Empty(t, violations)
}

func TestValidate_EmptyCandidate_FixedOrder(t *testing.T) {
	c := domain.Candidate{TripType: domain.TripTypeTourismTour}

	assert.Equal(t, []string{
		MsgFullNameRequired,
		MsgDOBRequired,
		MsgPhotoIDRequired,
		MsgSelfieRequired,
		MsgPickupRequired,
		MsgDestinationRequired,
		MsgPickupTimeRequired,
		MsgPartySize,
		MsgDistanceRequired,
		MsgAckOnTime,
		MsgAckPayment24h,
		MsgAckCancelFee,
	}, Validate(c, nil, now))
}

func TestValidate_DoesNotMutateCandidate(t *testing.T) {
	c := goodCandidate()
	c.FullName = "  Jane  "
	before := c

	Validate(c, nil, now)
	assert.Equal(t, before, c)
}

func TestValidate_Age(t *testing.T) {
	tests := []struct {
		name     string
		dob      time.Time
		underage bool
	}{
		{"21st birthday today", time.Date(2005, time.October, 17, 0, 0, 0, 0, time.UTC), false},
		{"21st birthday tomorrow", time.Date(2005, time.October, 18, 0, 0, 0, 0, time.UTC), true},
		{"21st birthday next month", time.Date(2005, time.November, 1, 0, 0, 0, 0, time.UTC), true},
		{"turned 21 last month", time.Date(2005, time.September, 30, 0, 0, 0, 0, time.UTC), false},
		{"child", time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := goodCandidate()
			c.DOB = &tt.dob
			violations := Validate(c, nil, now)
			if tt.underage {
				assert.Equal(t, []string{MsgUnderage}, violations)
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestValidate_AgeIndependentOfOtherFields(t *testing.T) {
	dob := now.AddDate(-20, 0, 0)
	c := domain.Candidate{DOB: &dob}

	assert.Contains(t, Validate(c, nil, now), MsgUnderage)
	assert.NotContains(t, Validate(c, nil, now), MsgDOBRequired)
}

func TestValidate_LeadTime(t *testing.T) {
	tests := []struct {
		name string
		lead time.Duration
		want []string
	}{
		{"47h59m", 47*time.Hour + 59*time.Minute, []string{MsgTooSoon}},
		{"exactly 48h", 48 * time.Hour, []string{}},
		{"71h59m", 71*time.Hour + 59*time.Minute, []string{}},
		{"exactly 72h", 72 * time.Hour, []string{}},
		{"72h1m", 72*time.Hour + time.Minute, []string{MsgTooFarOut}},
		{"in the past", -time.Hour, []string{MsgTooSoon}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := goodCandidate()
			pickup := now.Add(tt.lead)
			c.PickupDateTime = &pickup
			assert.Equal(t, tt.want, Validate(c, nil, now))
		})
	}
}

func TestValidate_PartySize(t *testing.T) {
	for _, size := range []int{0, -3} {
		c := goodCandidate()
		c.PartySize = size
		assert.Equal(t, []string{MsgPartySize}, Validate(c, nil, now))
	}
}

func TestValidate_TourismDistance(t *testing.T) {
	tests := []struct {
		name  string
		miles *float64
		want  []string
	}{
		{"missing", nil, []string{MsgDistanceRequired}},
		{"not a number", floatPtr(math.NaN()), []string{MsgDistanceRequired}},
		{"infinite", floatPtr(math.Inf(1)), []string{MsgDistanceRequired}},
		{"short", floatPtr(24.9), []string{MsgTourismTooShort}},
		{"exactly 25", floatPtr(25), []string{}},
		{"long", floatPtr(80), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := goodCandidate()
			c.TripType = domain.TripTypeTourismTour
			assert.Equal(t, tt.want, Validate(c, tt.miles, now))
		})
	}
}

func TestValidate_WorkTripIgnoresDistance(t *testing.T) {
	assert.Empty(t, Validate(goodCandidate(), floatPtr(1), now))
}

func TestValidate_WhitespaceOnlyFields(t *testing.T) {
	c := goodCandidate()
	c.FullName = "   "
	c.PickupAddress = "\t"
	c.DestinationAddress = " "

	assert.Equal(t, []string{MsgFullNameRequired, MsgPickupRequired, MsgDestinationRequired}, Validate(c, nil, now))
}

func TestAgeOn(t *testing.T) {
	dob := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 20, AgeOn(dob, time.Date(2021, time.February, 28, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 21, AgeOn(dob, time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLeadTimeHours(t *testing.T) {
	assert.InDelta(t, 60.0, LeadTimeHours(now.Add(60*time.Hour), now), 1e-9)
	assert.InDelta(t, -1.5, LeadTimeHours(now.Add(-90*time.Minute), now), 1e-9)
}
