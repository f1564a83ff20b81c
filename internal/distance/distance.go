// Package distance resolves driving distances between two street addresses.
package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"
)

var (
	// ErrNotFound is returned when no route exists between the addresses.
	ErrNotFound = errors.New("no route found or invalid address")

	// ErrUpstream is returned when the distance provider fails.
	ErrUpstream = errors.New("distance provider error")

	// ErrNotConfigured is returned when no provider API key is configured.
	ErrNotConfigured = errors.New("distance provider not configured")
)

const metersPerMile = 1609.344

// Result is a resolved driving distance.
type Result struct {
	Miles        float64 `json:"miles"`
	DurationText string  `json:"duration_text,omitempty"`
	DistanceText string  `json:"distance_text,omitempty"`
}

// GoogleResolver resolves distances with the Google Distance Matrix API.
type GoogleResolver struct {
	client *maps.Client
}

// NewGoogleResolver creates a resolver. extra options are passed to the maps
// client, e.g. maps.WithBaseURL in tests.
func NewGoogleResolver(apiKey string, extra ...maps.ClientOption) (*GoogleResolver, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	opts := append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, extra...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &GoogleResolver{client: client}, nil
}

// Resolve returns the driving distance in miles, rounded to one decimal.
func (r *GoogleResolver) Resolve(ctx context.Context, origin, destination string) (*Result, error) {
	if r == nil || r.client == nil {
		return nil, ErrNotConfigured
	}

	resp, err := r.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Units:        maps.UnitsImperial,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, ErrNotFound
	}
	element := resp.Rows[0].Elements[0]
	if element == nil || element.Status != "OK" {
		return nil, ErrNotFound
	}

	return &Result{
		Miles:        RoundMiles(float64(element.Distance.Meters) / metersPerMile),
		DurationText: element.Duration.Round(time.Minute).String(),
		DistanceText: element.Distance.HumanReadable,
	}, nil
}

// RoundMiles rounds to one decimal place.
func RoundMiles(miles float64) float64 {
	return math.Round(miles*10) / 10
}
