package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// TenantStore is the slice of persistence the provisioner needs.
type TenantStore interface {
	CompanyExists(ctx context.Context, id uuid.UUID) (bool, error)
	CreateCompany(ctx context.Context, id uuid.UUID, name string) (bool, error)
}

// Provisioner creates companies that an import references but that do not
// exist yet. It runs before any row is reconciled and reports what it made.
type Provisioner struct {
	store       TenantStore
	placeholder string
	logger      *slog.Logger
}

func NewProvisioner(store TenantStore, placeholder string, logger *slog.Logger) *Provisioner {
	if placeholder == "" {
		placeholder = "Imported company"
	}
	return &Provisioner{store: store, placeholder: placeholder, logger: logger}
}

// Ensure returns the ids it had to create, in the order given. Any fault
// stops provisioning and is returned wrapped in ErrProvisionTenant.
func (p *Provisioner) Ensure(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	created := make([]uuid.UUID, 0)
	for _, id := range ids {
		exists, err := p.store.CompanyExists(ctx, id)
		if err != nil {
			return created, fmt.Errorf("%w %s: %w", ErrProvisionTenant, id, err)
		}
		if exists {
			continue
		}
		name := fmt.Sprintf("%s %s", p.placeholder, id.String()[:8])
		inserted, err := p.store.CreateCompany(ctx, id, name)
		if err != nil {
			return created, fmt.Errorf("%w %s: %w", ErrProvisionTenant, id, err)
		}
		if inserted {
			created = append(created, id)
			p.logger.Info("tenant_provisioned", "company_id", id, "name", name)
		}
	}
	return created, nil
}
