package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestLoggingCarriesStatusAndCompany(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mw := AuthMiddleware{
		Verifier: stubVerifier{"good": tenantUser},
		Tenants:  stubTenants{tenantUser: companyID},
	}
	handler := RequestID(Logging(logger)(mw.RequireTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/imports/prices", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["msg"] != "http_request" {
		t.Fatalf("unexpected message %v", line["msg"])
	}
	if line["status"] != float64(http.StatusCreated) || line["bytes"] != float64(2) {
		t.Fatalf("unexpected status/bytes in %v", line)
	}
	if line["company_id"] != companyID.String() {
		t.Fatalf("expected company_id %s, got %v", companyID, line["company_id"])
	}
	if _, err := uuid.Parse(line["request_id"].(string)); err != nil {
		t.Fatalf("expected generated request id, got %v", line["request_id"])
	}
}
