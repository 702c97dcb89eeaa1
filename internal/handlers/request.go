package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/horeca-backoffice/apps/api/internal/httpx"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// readBody returns the raw request body so it can be both decoded and
// archived. It writes the error response itself and reports ok=false.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
			return nil, false
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Failed to read request body")
		return nil, false
	}
	return body, true
}

// decodeRequest decodes JSON with numbers kept as json.Number, so prices
// are never rounded through float64, then runs struct validation.
func decodeRequest(w http.ResponseWriter, r *http.Request, body []byte, dst any) bool {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body")
		return false
	}
	if err := requestValidator.Struct(dst); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "min":
		if fe.Kind() == reflect.Slice {
			return fe.Field() + " must be a non-empty array"
		}
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " must be a valid id"
	case "iso4217":
		return fe.Field() + " must be an ISO 4217 currency code"
	}
	return fe.Field() + " is invalid"
}
