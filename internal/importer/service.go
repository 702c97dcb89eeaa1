// Package importer reconciles untrusted batches of customers, products and
// prices against persisted records by natural key, reporting every row
// individually instead of failing the whole batch.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

var (
	ErrEmptyBatch      = errors.New("import batch must contain at least one row")
	ErrTooManyRows     = errors.New("import batch exceeds the row limit")
	ErrInvalidTenant   = errors.New("company_id is not a valid id")
	ErrProvisionTenant = errors.New("provision tenant")
	ErrPriceListCreate = errors.New("create price list")
)

// Store is everything the import engine reads and writes.
type Store interface {
	TenantStore

	FindCustomerByNumber(ctx context.Context, companyID uuid.UUID, number string) (store.Customer, error)
	InsertCustomer(ctx context.Context, c store.Customer) (store.Customer, error)
	UpdateCustomer(ctx context.Context, c store.Customer) (store.Customer, error)

	FindProductBySKU(ctx context.Context, companyID uuid.UUID, sku string) (store.Product, error)
	FindProductByID(ctx context.Context, companyID, id uuid.UUID) (store.Product, error)
	InsertProduct(ctx context.Context, p store.Product) (store.Product, error)
	UpdateProduct(ctx context.Context, p store.Product) (store.Product, error)

	CreatePriceList(ctx context.Context, pl store.PriceList) (store.PriceList, error)
	FindPriceListItem(ctx context.Context, priceListID, productID uuid.UUID) (store.PriceListItem, error)
	InsertPriceListItem(ctx context.Context, item store.PriceListItem) (store.PriceListItem, error)
	UpdatePriceListItem(ctx context.Context, item store.PriceListItem) (store.PriceListItem, error)
}

type Options struct {
	Workers          int
	MaxRows          int
	DefaultCompanyID uuid.UUID
	PlaceholderName  string
	AllowZeroPrice   bool
	DefaultCurrency  string
}

type Service struct {
	store       Store
	opts        Options
	logger      *slog.Logger
	provisioner *Provisioner
	now         func() time.Time
}

func NewService(st Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "EUR"
	}
	return &Service{
		store:       st,
		opts:        opts,
		logger:      logger,
		provisioner: NewProvisioner(st, opts.PlaceholderName, logger),
		now:         time.Now,
	}
}

// BatchRequest is the shape shared by customer and product imports.
// CompanyID is the request-level tenant; rows may override it.
type BatchRequest struct {
	Rows      []RawRow
	CompanyID string
}

func (s *Service) checkShape(n int) error {
	if n == 0 {
		return ErrEmptyBatch
	}
	if s.opts.MaxRows > 0 && n > s.opts.MaxRows {
		return fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, n, s.opts.MaxRows)
	}
	return nil
}

// prepareTenantRows normalizes rows and assigns each its tenant: the row's
// own company_id, else the request's, else the configured default. It
// returns the distinct tenants in first-seen order for provisioning.
func (s *Service) prepareTenantRows(raw []RawRow, requestCompany string, table aliasTable) ([]Row, []uuid.UUID, error) {
	fallback := s.opts.DefaultCompanyID
	if requestCompany != "" {
		id, err := uuid.Parse(requestCompany)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidTenant, requestCompany)
		}
		fallback = id
	}

	rows := make([]Row, len(raw))
	seen := make(map[uuid.UUID]struct{})
	tenants := make([]uuid.UUID, 0, 1)
	for i, r := range raw {
		row := normalizeRow(i, r, table)
		own, err := row.UUID(fieldCompanyID)
		switch {
		case err != nil:
			row.tenantErr = err
		case own != nil:
			row.Tenant = *own
		case fallback != uuid.Nil:
			row.Tenant = fallback
		default:
			row.tenantErr = errors.New("company_id is required")
		}
		if row.tenantErr == nil && !row.Empty() {
			if _, ok := seen[row.Tenant]; !ok {
				seen[row.Tenant] = struct{}{}
				tenants = append(tenants, row.Tenant)
			}
		}
		rows[i] = row
	}
	return rows, tenants, nil
}

func (s *Service) logCompleted(ctx context.Context, kind string, counts Counts, tenantsCreated int) {
	s.logger.InfoContext(ctx, "import_completed",
		"kind", kind,
		"inserted", counts.Inserted,
		"updated", counts.Updated,
		"skipped", counts.Skipped,
		"failed", counts.Failed,
		"tenants_created", tenantsCreated,
	)
}

func logFailures[T any](ctx context.Context, logger *slog.Logger, kind string, outcomes []Outcome[T]) {
	for _, o := range outcomes {
		if o.Result == Failed {
			logger.WarnContext(ctx, "import_row_failed", "kind", kind, "row", o.Index+1, "key", o.Key, "error", o.Reason)
		}
	}
}
