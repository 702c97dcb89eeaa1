package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/horeca-backoffice/apps/api/internal/middleware"
)

func TestWriteErrorEnvelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/imports/customers", nil)
	req = req.WithContext(middleware.WithRequestID(req.Context(), "req-42"))
	rr := httptest.NewRecorder()

	WriteError(rr, req, http.StatusBadRequest, "empty_batch", "customers must be a non-empty array")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	var body ErrorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "customers must be a non-empty array" || body.Code != "empty_batch" || body.RequestID != "req-42" {
		t.Fatalf("unexpected envelope %+v", body)
	}
}
