package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/httpx"
	"github.com/horeca-backoffice/apps/api/internal/importer"
	"github.com/horeca-backoffice/apps/api/internal/sheet"
)

// PostImportsUpload accepts an .xlsx or .csv file for the customer or
// product import. The first row of the file is the header.
func (s *Server) PostImportsUpload(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != "customers" && kind != "products" {
		httpx.WriteError(w, r, http.StatusNotFound, "not_found", "Uploads are supported for customers and products")
		return
	}

	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_content_type", "Content-Type must be multipart/form-data")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "Uploaded file is too large")
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_multipart", "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "missing_file", "file is required")
		return
	}
	defer file.Close()

	companyID := strings.TrimSpace(r.FormValue("company_id"))
	if companyID != "" {
		if _, err := uuid.Parse(companyID); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "company_id must be a valid id")
			return
		}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_file", "Failed to read uploaded file")
		return
	}

	records, err := sheet.Read(header.Filename, content, s.Config.ImportMaxRows)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_file", err.Error())
		return
	}
	rows := make([]importer.RawRow, len(records))
	for i, record := range records {
		rows[i] = record
	}

	batch := importer.BatchRequest{Rows: rows, CompanyID: companyID}
	contentType := sheet.ContentType(header.Filename)
	if kind == "customers" {
		s.runCustomerImport(w, r, batch, content, contentType)
		return
	}
	s.runProductImport(w, r, batch, content, contentType)
}
