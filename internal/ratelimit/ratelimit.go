// Package ratelimit provides fixed-window request throttling keyed by
// operation and caller.
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Count      int           // calls counted in the current window, including this one
	RetryAfter time.Duration // time until the window resets; zero when allowed
	ResetAt    time.Time
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1
// for a denied call.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Limiter counts calls per key in fixed windows.
type Limiter interface {
	// Allow counts one call for key. The first call opens a window of the
	// given length; once more than limit calls fall in the window, calls are
	// denied until it resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// Key combines an operation name with a caller identity.
func Key(operation, caller string) string {
	return operation + ":" + caller
}

// UnknownCaller identifies callers whose address cannot be determined.
const UnknownCaller = "unknown"

// ClientIP returns the caller address from proxy headers: the first
// X-Forwarded-For entry, then X-Real-IP, then CF-Connecting-IP. It returns
// UnknownCaller when none is present.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if cfIP := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}
	return UnknownCaller
}
