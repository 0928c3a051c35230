package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func pingOK(context.Context) error { return nil }

func pingDown(context.Context) error { return errors.New("connection refused") }

func readiness(t *testing.T, mongo, redis PingFunc) (int, readinessResponse) {
	t.Helper()
	c, rec := newTestContext(t, http.MethodGet, "/health/ready", "")
	if err := NewHealthDependenciesHandler(mongo, redis).Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return rec.Code, resp
}

func TestReadiness(t *testing.T) {
	cases := []struct {
		name        string
		mongo       PingFunc
		redis       PingFunc
		code        int
		status      string
		redisStatus string
	}{
		{"all up", pingOK, pingOK, http.StatusOK, "ok", "ok"},
		{"cache disabled", pingOK, nil, http.StatusOK, "ok", "disabled"},
		{"cache down", pingOK, pingDown, http.StatusOK, "degraded", "unhealthy"},
		{"store down", pingDown, pingOK, http.StatusServiceUnavailable, "unavailable", "ok"},
	}
	for _, tc := range cases {
		code, resp := readiness(t, tc.mongo, tc.redis)
		if code != tc.code || resp.Status != tc.status {
			t.Fatalf("%s: expected %d/%s, got %d/%s", tc.name, tc.code, tc.status, code, resp.Status)
		}
		if got := resp.Dependencies["redis"].Status; got != tc.redisStatus {
			t.Fatalf("%s: expected redis %s, got %s", tc.name, tc.redisStatus, got)
		}
	}
}

func TestLiveness(t *testing.T) {
	c, rec := newTestContext(t, http.MethodGet, "/health", "")
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
