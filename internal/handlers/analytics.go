package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/horeca-backoffice/apps/api/internal/analytics"
	"github.com/horeca-backoffice/apps/api/internal/httpx"
	"github.com/horeca-backoffice/apps/api/internal/middleware"
)

type periodMetricsResponse struct {
	Revenue json.Number `json:"revenue"`
	Volume  json.Number `json:"volume"`
	Orders  int64       `json:"orders"`
}

type periodChangesResponse struct {
	RevenuePct json.Number `json:"revenue_pct"`
	VolumePct  json.Number `json:"volume_pct"`
	OrdersPct  json.Number `json:"orders_pct"`
}

type periodComparisonResponse struct {
	Current  periodMetricsResponse `json:"current"`
	Previous periodMetricsResponse `json:"previous"`
	Changes  periodChangesResponse `json:"changes"`
}

func (s *Server) GetAnalyticsCustomersComparison(w http.ResponseWriter, r *http.Request) {
	var (
		customerID       openapi_types.UUID
		from, to         openapi_types.Date
		prevFrom, prevTo openapi_types.Date
		companyID        *openapi_types.UUID
	)
	query := r.URL.Query()
	params := []struct {
		name     string
		required bool
		dst      any
	}{
		{"customerId", true, &customerID},
		{"from", true, &from},
		{"to", true, &to},
		{"prevFrom", true, &prevFrom},
		{"prevTo", true, &prevTo},
		{"companyId", false, &companyID},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, p.required, p.name, query, p.dst); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	tenant := s.Config.DefaultCompanyID
	if companyID != nil {
		tenant = *companyID
	}
	if tenant == uuid.Nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "companyId is required")
		return
	}

	cmp, err := s.Analytics.Compare(r.Context(), tenant, customerID,
		analytics.Range{From: from.Time, To: to.Time},
		analytics.Range{From: prevFrom.Time, To: prevTo.Time},
	)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidRange) {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		s.Logger.ErrorContext(r.Context(), "analytics_comparison_failed",
			"company_id", tenant,
			"customer_id", customerID,
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mapComparison(cmp))
}

func mapComparison(c analytics.Comparison) periodComparisonResponse {
	return periodComparisonResponse{
		Current:  mapMetrics(c.Current),
		Previous: mapMetrics(c.Previous),
		Changes: periodChangesResponse{
			RevenuePct: decimalNumber(c.Changes.RevenuePct),
			VolumePct:  decimalNumber(c.Changes.VolumePct),
			OrdersPct:  decimalNumber(c.Changes.OrdersPct),
		},
	}
}

func mapMetrics(m analytics.Metrics) periodMetricsResponse {
	return periodMetricsResponse{
		Revenue: decimalNumber(m.Revenue),
		Volume:  decimalNumber(m.Volume),
		Orders:  m.Orders,
	}
}
