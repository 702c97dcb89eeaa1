package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/horeca-backoffice/apps/api/internal/audit"
	"github.com/horeca-backoffice/apps/api/internal/httpx"
	"github.com/horeca-backoffice/apps/api/internal/importer"
	"github.com/horeca-backoffice/apps/api/internal/middleware"
	"github.com/horeca-backoffice/apps/api/internal/store"
)

const contentTypeJSON = "application/json"

type customerImportRequest struct {
	Customers []importer.RawRow `json:"customers" validate:"required,min=1"`
	CompanyID string            `json:"company_id" validate:"omitempty,uuid"`
}

type customerImportResponse struct {
	Success        int         `json:"success"`
	Errors         []string    `json:"errors"`
	Inserted       int         `json:"inserted"`
	Updated        int         `json:"updated"`
	Skipped        int         `json:"skipped"`
	Warnings       []string    `json:"warnings"`
	TenantsCreated []uuid.UUID `json:"tenantsCreated"`
}

type productImportRequest struct {
	Products  []importer.RawRow `json:"products" validate:"required,min=1"`
	CompanyID string            `json:"company_id" validate:"omitempty,uuid"`
}

type productImportResponse struct {
	Success        bool                 `json:"success"`
	Count          int                  `json:"count"`
	Products       []productResponse    `json:"products"`
	Errors         []productImportError `json:"errors,omitempty"`
	Warnings       []string             `json:"warnings"`
	TenantsCreated []uuid.UUID          `json:"tenantsCreated"`
}

type productImportError struct {
	Product string `json:"product"`
	Error   string `json:"error"`
}

type productResponse struct {
	ID          uuid.UUID    `json:"id"`
	CompanyID   uuid.UUID    `json:"company_id"`
	SKU         *string      `json:"sku"`
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Category    *string      `json:"category"`
	Unit        *string      `json:"unit"`
	EAN         *string      `json:"ean"`
	ListPrice   *json.Number `json:"list_price"`
	CostPrice   *json.Number `json:"cost_price"`
	VATRate     *json.Number `json:"vat_rate"`
	Active      *bool        `json:"active"`
}

type priceImportRequest struct {
	Prices        []importer.RawRow `json:"prices" validate:"required,min=1"`
	PriceListName string            `json:"priceListName" validate:"max=200"`
	Currency      string            `json:"currency" validate:"omitempty,iso4217"`
}

type priceImportResponse struct {
	Success       bool      `json:"success"`
	PriceListID   uuid.UUID `json:"priceListId"`
	ItemsImported int       `json:"itemsImported"`
	Skipped       int       `json:"skipped"`
	Warnings      []string  `json:"warnings"`
	Errors        []string  `json:"errors,omitempty"`
}

func (s *Server) PostImportsCustomers(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req customerImportRequest
	if !decodeRequest(w, r, body, &req) {
		return
	}
	s.runCustomerImport(w, r, importer.BatchRequest{Rows: req.Customers, CompanyID: req.CompanyID}, body, contentTypeJSON)
}

func (s *Server) PostImportsProducts(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req productImportRequest
	if !decodeRequest(w, r, body, &req) {
		return
	}
	s.runProductImport(w, r, importer.BatchRequest{Rows: req.Products, CompanyID: req.CompanyID}, body, contentTypeJSON)
}

func (s *Server) PostImportsPrices(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authorization required")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	var req priceImportRequest
	if !decodeRequest(w, r, body, &req) {
		return
	}

	report, err := s.Imports.ImportPrices(r.Context(), importer.PriceRequest{
		CompanyID: principal.CompanyID,
		Rows:      req.Prices,
		ListName:  req.PriceListName,
		Currency:  req.Currency,
	})
	if err != nil {
		s.writeImportError(w, r, "prices", err)
		return
	}

	archiveKey := s.archivePayload(r, "prices", principal.CompanyID, body, contentTypeJSON)
	userID := principal.UserID
	listID := report.PriceListID
	s.auditImport(r, audit.Entry{
		CompanyID:  principal.CompanyID,
		UserID:     &userID,
		Action:     "imports.prices",
		EntityType: "price_list",
		EntityID:   &listID,
	}, report.Counts, 0, archiveKey)

	httpx.WriteJSON(w, http.StatusOK, priceImportResponse{
		Success:       true,
		PriceListID:   report.PriceListID,
		ItemsImported: report.Counts.Succeeded(),
		Skipped:       report.Counts.Skipped,
		Warnings:      report.Warnings,
		Errors:        rowErrors(report.Failures()),
	})
}

func (s *Server) runCustomerImport(w http.ResponseWriter, r *http.Request, batch importer.BatchRequest, payload []byte, contentType string) {
	report, err := s.Imports.ImportCustomers(r.Context(), batch)
	if err != nil {
		s.writeImportError(w, r, "customers", err)
		return
	}

	tenant := s.requestTenant(batch.CompanyID)
	archiveKey := s.archivePayload(r, "customers", tenant, payload, contentType)
	s.auditImport(r, audit.Entry{
		CompanyID:  tenant,
		Action:     "imports.customers",
		EntityType: "customer",
	}, report.Counts, len(report.TenantsCreated), archiveKey)

	errs := rowErrors(report.Failures())
	if errs == nil {
		errs = make([]string, 0)
	}
	httpx.WriteJSON(w, http.StatusOK, customerImportResponse{
		Success:        report.Counts.Succeeded(),
		Errors:         errs,
		Inserted:       report.Counts.Inserted,
		Updated:        report.Counts.Updated,
		Skipped:        report.Counts.Skipped,
		Warnings:       report.Warnings,
		TenantsCreated: report.TenantsCreated,
	})
}

func (s *Server) runProductImport(w http.ResponseWriter, r *http.Request, batch importer.BatchRequest, payload []byte, contentType string) {
	report, err := s.Imports.ImportProducts(r.Context(), batch)
	if err != nil {
		s.writeImportError(w, r, "products", err)
		return
	}

	tenant := s.requestTenant(batch.CompanyID)
	archiveKey := s.archivePayload(r, "products", tenant, payload, contentType)
	s.auditImport(r, audit.Entry{
		CompanyID:  tenant,
		Action:     "imports.products",
		EntityType: "product",
	}, report.Counts, len(report.TenantsCreated), archiveKey)

	written := report.Written()
	products := make([]productResponse, 0, len(written))
	for _, p := range written {
		products = append(products, mapProduct(p))
	}
	var errs []productImportError
	for _, o := range report.Failures() {
		errs = append(errs, productImportError{Product: outcomeLabel(o), Error: o.Reason})
	}

	httpx.WriteJSON(w, http.StatusOK, productImportResponse{
		Success:        true,
		Count:          len(products),
		Products:       products,
		Errors:         errs,
		Warnings:       report.Warnings,
		TenantsCreated: report.TenantsCreated,
	})
}

func (s *Server) writeImportError(w http.ResponseWriter, r *http.Request, kind string, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "internal_error"
		msg    = err.Error()
	)
	switch {
	case errors.Is(err, importer.ErrEmptyBatch):
		status, code, msg = http.StatusBadRequest, "validation_error", kind+" must be a non-empty array"
	case errors.Is(err, importer.ErrTooManyRows):
		status, code = http.StatusBadRequest, "too_many_rows"
	case errors.Is(err, importer.ErrInvalidTenant):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, importer.ErrProvisionTenant):
		code = "tenant_provisioning_failed"
	case errors.Is(err, importer.ErrPriceListCreate):
		code = "price_list_create_failed"
	}
	if status >= http.StatusInternalServerError {
		s.Logger.ErrorContext(r.Context(), "import_failed",
			"kind", kind,
			"error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
	}
	httpx.WriteError(w, r, status, code, msg)
}

// requestTenant is the tenant a batch is filed under for archiving and
// auditing. Rows may still override it individually.
func (s *Server) requestTenant(companyID string) uuid.UUID {
	if id, err := uuid.Parse(companyID); err == nil {
		return id
	}
	return s.Config.DefaultCompanyID
}

func (s *Server) archivePayload(r *http.Request, kind string, companyID uuid.UUID, payload []byte, contentType string) string {
	key, err := s.Archive.Archive(r.Context(), kind, companyID, payload, contentType)
	if err != nil {
		s.Logger.WarnContext(r.Context(), "import_archive_failed",
			"kind", kind,
			"company_id", companyID,
			"error", err,
		)
		return ""
	}
	return key
}

func (s *Server) auditImport(r *http.Request, entry audit.Entry, counts importer.Counts, tenantsCreated int, archiveKey string) {
	if s.Audit == nil {
		return
	}
	entry.RequestID = middleware.RequestIDFromContext(r.Context())
	entry.Metadata = map[string]any{
		"inserted":       counts.Inserted,
		"updated":        counts.Updated,
		"skipped":        counts.Skipped,
		"failed":         counts.Failed,
		"tenantsCreated": tenantsCreated,
	}
	if archiveKey != "" {
		entry.Metadata["archiveKey"] = archiveKey
	}
	if err := s.Audit.Log(r.Context(), entry); err != nil {
		s.Logger.WarnContext(r.Context(), "audit_log_failed", "action", entry.Action, "error", err)
	}
}

func rowErrors[T any](failures []importer.Outcome[T]) []string {
	if len(failures) == 0 {
		return nil
	}
	out := make([]string, 0, len(failures))
	for _, o := range failures {
		out = append(out, fmt.Sprintf("%s: %s", outcomeLabel(o), o.Reason))
	}
	return out
}

func outcomeLabel[T any](o importer.Outcome[T]) string {
	key := strings.TrimPrefix(o.Key, "id:")
	if key == "" {
		return fmt.Sprintf("row %d", o.Index+1)
	}
	return fmt.Sprintf("row %d (%s)", o.Index+1, key)
}

func mapProduct(p store.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Unit:        p.Unit,
		EAN:         p.EAN,
		ListPrice:   decimalNumberPtr(p.ListPrice),
		CostPrice:   decimalNumberPtr(p.CostPrice),
		VATRate:     decimalNumberPtr(p.VATRate),
		Active:      p.Active,
	}
}

// decimalNumber renders a decimal as a JSON number without passing it
// through float64.
func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func decimalNumberPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := decimalNumber(*d)
	return &n
}
