package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
)

func TestHealthzAlwaysOK(t *testing.T) {
	h := NewHealthHandlers(nil, WithHealthClock(func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	}))

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	payload := decodeBody(t, rec)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestReadyzReportsChecks(t *testing.T) {
	system := &stubSystemService{report: domain.SystemHealthReport{
		Status: domain.HealthStatusOK,
		Checks: map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusOK, Latency: 12 * time.Millisecond},
		},
		GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}}
	h := NewHealthHandlers(system)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeBody(t, rec)
	checks, ok := payload["checks"].(map[string]any)
	if !ok || len(checks) != 1 {
		t.Fatalf("missing checks in %v", payload)
	}
}

func TestReadyzFailsOnErrorStatus(t *testing.T) {
	system := &stubSystemService{report: domain.SystemHealthReport{
		Status: domain.HealthStatusError,
		Checks: map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusError, Detail: "timeout"},
		},
	}}
	h := NewHealthHandlers(system)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for error status, got %d", rec.Code)
	}
}
