package service

import (
	"math"
	"strings"
	"time"

	"rideintake/internal/domain"
)

// Booking policy.
const (
	MinimumAge             = 21
	MinLeadTimeHours       = 48.0
	MaxLeadTimeHours       = 72.0
	MinTourismDistanceMile = 25.0
)

// Violation messages, in the order Validate reports them.
const (
	MsgFullNameRequired    = "Full name is required."
	MsgDOBRequired         = "Date of birth is required."
	MsgUnderage            = "Requester must be at least 21 years old."
	MsgPhotoIDRequired     = "Picture ID is required."
	MsgSelfieRequired      = "Selfie is required for verification."
	MsgPickupRequired      = "Pickup address is required."
	MsgDestinationRequired = "Destination address is required."
	MsgPickupTimeRequired  = "Pickup date/time is required."
	MsgTooSoon             = "Requests must be submitted at least 48 hours in advance."
	MsgTooFarOut           = "Requests must be submitted no more than 72 hours in advance."
	MsgPartySize           = "Party size must be at least 1."
	MsgDistanceRequired    = "Distance must be calculated for Tourism/Tour trips."
	MsgTourismTooShort     = "Tourism/Tour trips must be 25+ miles from pickup location."
	MsgAckOnTime           = "You must acknowledge: be ready at least 5 minutes before pickup time."
	MsgAckPayment24h       = "You must acknowledge: payment must be submitted and confirmed 24 hours prior."
	MsgAckCancelFee        = "You must acknowledge: cancellation fee applies if cancelled < 6 hours."
)

// Validate returns every business-rule violation of c, in a fixed order.
// An empty result means the candidate can be submitted. It never mutates c.
func Validate(c domain.Candidate, distanceMiles *float64, now time.Time) []string {
	violations := []string{}

	if strings.TrimSpace(c.FullName) == "" {
		violations = append(violations, MsgFullNameRequired)
	}

	if c.DOB == nil {
		violations = append(violations, MsgDOBRequired)
	} else if AgeOn(*c.DOB, now) < MinimumAge {
		violations = append(violations, MsgUnderage)
	}

	if c.PhotoIDFileName == "" {
		violations = append(violations, MsgPhotoIDRequired)
	}
	if c.SelfieFileName == "" {
		violations = append(violations, MsgSelfieRequired)
	}

	if strings.TrimSpace(c.PickupAddress) == "" {
		violations = append(violations, MsgPickupRequired)
	}
	if strings.TrimSpace(c.DestinationAddress) == "" {
		violations = append(violations, MsgDestinationRequired)
	}

	if c.PickupDateTime == nil {
		violations = append(violations, MsgPickupTimeRequired)
	} else {
		lead := LeadTimeHours(*c.PickupDateTime, now)
		if lead < MinLeadTimeHours {
			violations = append(violations, MsgTooSoon)
		}
		if lead > MaxLeadTimeHours {
			violations = append(violations, MsgTooFarOut)
		}
	}

	if c.PartySize < 1 {
		violations = append(violations, MsgPartySize)
	}

	if c.TripType == domain.TripTypeTourismTour {
		switch {
		case distanceMiles == nil || math.IsNaN(*distanceMiles) || math.IsInf(*distanceMiles, 0):
			violations = append(violations, MsgDistanceRequired)
		case *distanceMiles < MinTourismDistanceMile:
			violations = append(violations, MsgTourismTooShort)
		}
	}

	if !c.AckOnTime {
		violations = append(violations, MsgAckOnTime)
	}
	if !c.AckPayment24h {
		violations = append(violations, MsgAckPayment24h)
	}
	if !c.AckCancelFee {
		violations = append(violations, MsgAckCancelFee)
	}

	return violations
}

// AgeOn returns the age in whole years on now for someone born on dob.
// dob is a calendar date; its location is ignored. A birthday not yet
// reached this year does not count.
func AgeOn(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// LeadTimeHours returns the hours between now and pickup. Negative when pickup is in the past.
func LeadTimeHours(pickup, now time.Time) float64 {
	return pickup.Sub(now).Hours()
}
