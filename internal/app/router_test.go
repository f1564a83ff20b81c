package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rideintake/internal/access"
	"rideintake/internal/config"
	"rideintake/internal/distance"
	"rideintake/internal/handler"
	"rideintake/internal/ratelimit"
	"rideintake/internal/service"
	"rideintake/internal/tests"
)

var fixedNow = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	repo   *tests.MockRideRequestRepository
}

func newTestServer(t *testing.T, admin access.Config, resolver service.DistanceResolver) *testServer {
	t.Helper()
	return newTestServerWithRedis(t, admin, resolver, nil)
}

func newTestServerWithRedis(t *testing.T, admin access.Config, resolver service.DistanceResolver, redisClient *redis.Client) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repo := tests.NewMockRideRequestRepository()
	limiter, err := ratelimit.NewMemory(100)
	require.NoError(t, err)

	opts := []service.Option{service.WithClock(func() time.Time { return fixedNow }), service.WithLogger(logger)}
	if resolver != nil {
		opts = append(opts, service.WithDistanceResolver(resolver))
	}
	svc := service.NewRideRequestService(repo, opts...)
	validate := handler.NewValidator()

	router, err := NewRouter(RouterDeps{
		RideRequestHandler: handler.NewRideRequestHandler(svc, validate, logger),
		AdminHandler:       handler.NewAdminHandler(svc),
		DistanceHandler:    handler.NewDistanceHandler(resolver, validate, logger),
		Gate:               access.NewGate(admin),
		Limiter:            limiter,
		RateLimits:         config.Default().RateLimit,
		RedisClient:        redisClient,
		Logger:             logger,
	})
	require.NoError(t, err)
	return &testServer{router: router, repo: repo}
}

func (s *testServer) do(method, path, host string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if host != "" {
		req.Host = host
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func validBody(miles float64) map[string]any {
	return map[string]any{
		"full_name":           "Jane Doe",
		"dob":                 fixedNow.AddDate(-25, 0, 0).Format("2006-01-02"),
		"trip_type":           "TOURISM_TOUR",
		"pickup_address":      "A",
		"destination_address": "B",
		"pickup_date_time":    fixedNow.Add(60 * time.Hour).Format(time.RFC3339),
		"party_size":          2,
		"distance_miles":      miles,
		"photo_id_file_name":  "id.jpg",
		"selfie_file_name":    "selfie.jpg",
		"payment_method":      "Zelle",
		"ack_on_time":         true,
		"ack_payment_24h":     true,
		"ack_cancel_fee":      true,
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRouter_HealthAndRobots(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/robots.txt", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Disallow: /admin")
}

func TestRouter_ValidatePreview(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)

	w := s.do(http.MethodPost, "/api/requests/validate", "", validBody(10))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false,"violations":["Tourism/Tour trips must be 25+ miles from pickup location."]}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/requests/validate", "", validBody(30))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"violations":[]}`, w.Body.String())
}

func TestRouter_SubmitPayConfirm(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)

	w := s.do(http.MethodPost, "/api/requests", "", validBody(30))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, true, created["ok"])
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	w = s.do(http.MethodPost, "/api/requests/"+id+"/payment-submitted", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	submitted := decode(t, w)["request"].(map[string]any)
	assert.Equal(t, true, submitted["payment_submitted"])
	assert.Equal(t, "PAYMENT_SUBMITTED", submitted["status"])

	w = s.do(http.MethodPost, "/api/admin/requests/"+id+"/confirm-payment", "localhost:8080", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "noindex, nofollow, noarchive", w.Header().Get("X-Robots-Tag"))
	confirmed := decode(t, w)["request"].(map[string]any)
	assert.Equal(t, true, confirmed["payment_confirmed"])
	assert.Equal(t, "PAYMENT_CONFIRMED", confirmed["status"])
	assert.NotNil(t, confirmed["payment_confirmed_at"])

	w = s.do(http.MethodGet, "/api/admin/requests", "127.0.0.1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode(t, w)["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].(map[string]any)["id"])

	w = s.do(http.MethodGet, "/api/admin/requests/"+id, "localhost", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SubmitValidationFailure(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)
	body := validBody(30)
	body["ack_on_time"] = false

	w := s.do(http.MethodPost, "/api/requests", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Validation failed.","violations":["You must acknowledge: be ready at least 5 minutes before pickup time."]}`, w.Body.String())
	assert.Zero(t, s.repo.Count())
}

func TestRouter_BadBodies(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)

	unknownEnum := validBody(30)
	unknownEnum["trip_type"] = "Vacation"
	w := s.do(http.MethodPost, "/api/requests", "", unknownEnum)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid enum value")

	badDate := validBody(30)
	badDate["dob"] = "03/04/1999"
	w = s.do(http.MethodPost, "/api/requests", "", badDate)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body","fields":{"dob":"must be a date in YYYY-MM-DD format"}}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/requests", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PartySizeDefaultsToOne(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)
	body := validBody(30)
	delete(body, "party_size")

	w := s.do(http.MethodPost, "/api/requests", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	assert.Equal(t, 1, s.repo.GetRequest(id).PartySize)
}

func TestRouter_PaymentSubmittedUnknownID(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)

	w := s.do(http.MethodPost, "/api/requests/nope/payment-submitted", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found."}`, w.Body.String())
}

func TestRouter_AdminLocalOnly(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true, APIKey: "k"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req.Host = "example.com"
	req.Header.Set("x-admin-key", "k")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Admin is local-only."}`, w.Body.String())
}

func TestRouter_AdminRemote(t *testing.T) {
	s := newTestServer(t, access.Config{RemoteEnabled: true, APIKey: "secret"}, nil)

	w := s.do(http.MethodGet, "/api/admin/requests", "rides.example.com", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req.Host = "rides.example.com"
	req.Header.Set("x-admin-key", "secret")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"rows":[]}`, rec.Body.String())
}

func TestRouter_SubmitRateLimited(t *testing.T) {
	s := newTestServer(t, access.Config{LocalOnly: true}, nil)
	limit := config.Default().RateLimit.Submit.Limit

	body := validBody(10) // rejected bodies still count
	for i := 0; i < limit; i++ {
		w := s.do(http.MethodPost, "/api/requests", "", body)
		require.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprintf("call %d", i+1))
	}

	w := s.do(http.MethodPost, "/api/requests", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests.", decode(t, w)["error"])
}

func TestRouter_Distance(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, access.Config{LocalOnly: true}, nil)
		w := s.do(http.MethodPost, "/api/distance", "", map[string]string{"origin": "A", "destination": "B"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"GOOGLE_MAPS_API_KEY is not set."}`, w.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		s := newTestServer(t, access.Config{LocalOnly: true}, &tests.MockDistanceResolver{Miles: 30})
		w := s.do(http.MethodPost, "/api/distance", "", map[string]string{"origin": "A"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("resolved", func(t *testing.T) {
		s := newTestServer(t, access.Config{LocalOnly: true}, &tests.MockDistanceResolver{Miles: 30.2})
		w := s.do(http.MethodPost, "/api/distance", "", map[string]string{"origin": "A", "destination": "B"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"miles":30.2}`, w.Body.String())
	})

	t.Run("no route", func(t *testing.T) {
		s := newTestServer(t, access.Config{LocalOnly: true}, &tests.MockDistanceResolver{Err: distance.ErrNotFound})
		w := s.do(http.MethodPost, "/api/distance", "", map[string]string{"origin": "A", "destination": "B"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream", func(t *testing.T) {
		s := newTestServer(t, access.Config{LocalOnly: true}, &tests.MockDistanceResolver{Err: fmt.Errorf("%w: quota", distance.ErrUpstream)})
		w := s.do(http.MethodPost, "/api/distance", "", map[string]string{"origin": "A", "destination": "B"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"Distance lookup failed."}`, w.Body.String())
	})
}

func newRedisTestServer(t *testing.T, admin access.Config) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newTestServerWithRedis(t, admin, nil, client)
}

func (s *testServer) doKeyed(method, path, host, key string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	if host != "" {
		req.Host = host
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRouter_IdempotentSubmitReplays(t *testing.T) {
	s := newRedisTestServer(t, access.Config{LocalOnly: true})

	first := s.doKeyed(http.MethodPost, "/api/requests", "", "submit-1", validBody(30))
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := s.doKeyed(http.MethodPost, "/api/requests", "", "submit-1", validBody(30))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])
	assert.Equal(t, 1, s.repo.Count())
}

func TestRouter_IdempotentConfirmStillGated(t *testing.T) {
	s := newRedisTestServer(t, access.Config{LocalOnly: true})

	w := s.do(http.MethodPost, "/api/requests", "", validBody(30))
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	path := "/api/admin/requests/" + id + "/confirm-payment"

	w = s.doKeyed(http.MethodPost, path, "localhost", "k1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.doKeyed(http.MethodPost, path, "example.com", "k1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Admin is local-only."}`, w.Body.String())
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	assert.NotContains(t, w.Body.String(), "Jane Doe")
}

func TestRouter_IdempotentSubmitStillRateLimited(t *testing.T) {
	s := newRedisTestServer(t, access.Config{LocalOnly: true})
	limit := config.Default().RateLimit.Submit.Limit

	for i := 0; i < limit; i++ {
		w := s.doKeyed(http.MethodPost, "/api/requests", "", "same-key", validBody(30))
		require.Equal(t, http.StatusCreated, w.Code, fmt.Sprintf("call %d", i+1))
	}

	w := s.doKeyed(http.MethodPost, "/api/requests", "", "same-key", validBody(30))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Empty(t, w.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, s.repo.Count())
}

func TestRouter_SpoofedForwardedForDenied(t *testing.T) {
	s := newTestServer(t, access.Config{RemoteEnabled: true, APIKey: "secret", IPAllowlist: []string{"10.0.0.0/8"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req.Host = "rides.example.com"
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	req.Header.Set("x-admin-key", "secret")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Forbidden."}`, w.Body.String())
}
