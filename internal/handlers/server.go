package handlers

import (
	"log/slog"
	"net/http"

	"github.com/horeca-backoffice/apps/api/internal/analytics"
	"github.com/horeca-backoffice/apps/api/internal/archive"
	"github.com/horeca-backoffice/apps/api/internal/audit"
	"github.com/horeca-backoffice/apps/api/internal/config"
	"github.com/horeca-backoffice/apps/api/internal/httpx"
	"github.com/horeca-backoffice/apps/api/internal/importer"
)

type Server struct {
	Config    config.Config
	Imports   *importer.Service
	Analytics *analytics.Aggregator
	Archive   archive.Archiver
	Audit     *audit.Logger
	Logger    *slog.Logger
}

func NewServer(cfg config.Config, imports *importer.Service, agg *analytics.Aggregator, archiver archive.Archiver, auditLogger *audit.Logger, logger *slog.Logger) *Server {
	if archiver == nil {
		archiver = archive.Noop{}
	}
	return &Server{Config: cfg, Imports: imports, Analytics: agg, Archive: archiver, Audit: auditLogger, Logger: logger}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
