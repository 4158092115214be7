package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandler_AllChecksHealthy(t *testing.T) {
	handler := NewHandler("1.2.3")
	handler.Register("postgres", func(context.Context) error { return nil })
	handler.Register("redis", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response Response
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Status != "healthy" {
		t.Errorf("unexpected status: %s", response.Status)
	}
	if response.Version != "1.2.3" {
		t.Errorf("unexpected version: %s", response.Version)
	}
	if len(response.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(response.Checks))
	}
	for name, check := range response.Checks {
		if check.Status != "healthy" || check.Error != "" {
			t.Errorf("check %s should be healthy: %+v", name, check)
		}
	}
}

func TestHandler_FailingCheckReturns503(t *testing.T) {
	handler := NewHandler("")
	handler.Register("postgres", func(context.Context) error { return nil })
	handler.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var response Response
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Status != "unhealthy" {
		t.Errorf("unexpected status: %s", response.Status)
	}
	if response.Checks["redis"].Error != "connection refused" {
		t.Errorf("unexpected redis check: %+v", response.Checks["redis"])
	}
	if response.Checks["postgres"].Status != "healthy" {
		t.Errorf("postgres check should stay healthy: %+v", response.Checks["postgres"])
	}
}

func TestHandler_NoChecksIsHealthy(t *testing.T) {
	handler := NewHandler("")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with no checks, got %d", rec.Code)
	}
}

func TestHandler_CheckTimeout(t *testing.T) {
	handler := NewHandler("")
	handler.timeout = 20 * time.Millisecond
	handler.Register("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for timed-out check, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	handler := NewHandler("")
	handler.Register("ok", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	handler.Register("broken", func(context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	handler.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	Liveness(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
