package redis

import (
	"rideintake/internal/distance"
	"rideintake/internal/ratelimit"
)

// Ensure concrete types implement interfaces.
var (
	_ distance.Cache    = (*CacheStore)(nil)
	_ ratelimit.Limiter = (*RateLimiter)(nil)
)
