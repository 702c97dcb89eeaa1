package httpx

import (
	"net/http"

	"github.com/horeca-backoffice/apps/api/internal/middleware"
)

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	WriteJSON(w, status, ErrorEnvelope{
		Error:     message,
		Code:      code,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}
