package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"pill-tracker/internal/platform/logger"
)

func TestRequestLogger_LogsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Format: logger.FormatJSON, Output: &buf})

	h := chimw.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%q)", err, buf.String())
	}
	if line["status"] != float64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %#v", line["status"])
	}
	if line["path"] != "/health" {
		t.Fatalf("unexpected path: %#v", line["path"])
	}
	if id, _ := line["request_id"].(string); id == "" {
		t.Fatalf("expected request_id in log line")
	}
	if line["level"] != "warning" {
		t.Fatalf("4xx should log at warn, got %#v", line["level"])
	}
}
