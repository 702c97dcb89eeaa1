package importer

import (
	"context"
	"fmt"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

type customerStrategy struct {
	store Store
}

func (customerStrategy) key(row Row) string {
	return row.Text(fieldCustomerNumber)
}

func (c customerStrategy) plan(ctx context.Context, row Row) (plan[store.Customer], error) {
	var p plan[store.Customer]
	if row.Empty() {
		p.skip = fmt.Sprintf("row %d: no recognizable customer fields", row.Index+1)
		return p, nil
	}
	if row.tenantErr != nil {
		return p, row.tenantErr
	}

	p.draft = store.Customer{
		CompanyID:      row.Tenant,
		CustomerNumber: row.TextPtr(fieldCustomerNumber),
		Name:           row.TextPtr(fieldName),
		ContactPerson:  row.TextPtr(fieldContactPerson),
		Email:          row.TextPtr(fieldEmail),
		Phone:          row.TextPtr(fieldPhone),
		Street:         row.TextPtr(fieldStreet),
		PostalCode:     row.TextPtr(fieldPostalCode),
		City:           row.TextPtr(fieldCity),
		Country:        row.TextPtr(fieldCountry),
	}

	number := c.key(row)
	label := "customer " + number
	if number == "" {
		label = fmt.Sprintf("row %d", row.Index+1)
		p.warnings = append(p.warnings, label+": no customer number, inserted without a match key")
	}
	p.warnings = append(p.warnings, customerWarnings(label, p.draft)...)

	existing, found, err := match(ctx, number, func(ctx context.Context, key string) (store.Customer, error) {
		return c.store.FindCustomerByNumber(ctx, row.Tenant, key)
	})
	if err != nil {
		return p, fmt.Errorf("find customer: %w", err)
	}
	if found {
		p.existing = &existing
	}
	return p, nil
}

func (c customerStrategy) insert(ctx context.Context, draft store.Customer) (store.Customer, error) {
	return c.store.InsertCustomer(ctx, draft)
}

func (c customerStrategy) update(ctx context.Context, existing, draft store.Customer) (store.Customer, error) {
	draft.ID = existing.ID
	draft.CompanyID = existing.CompanyID
	return c.store.UpdateCustomer(ctx, draft)
}

// ImportCustomers reconciles customers by (company, customer number).
func (s *Service) ImportCustomers(ctx context.Context, req BatchRequest) (Report[store.Customer], error) {
	if err := s.checkShape(len(req.Rows)); err != nil {
		return Report[store.Customer]{}, err
	}
	rows, tenants, err := s.prepareTenantRows(req.Rows, req.CompanyID, customerAliases)
	if err != nil {
		return Report[store.Customer]{}, err
	}
	created, err := s.provisioner.Ensure(ctx, tenants)
	if err != nil {
		return Report[store.Customer]{}, err
	}

	outcomes := runBatch[store.Customer](ctx, s.opts.Workers, rows, customerStrategy{store: s.store})
	report := newReport(outcomes, created)
	logFailures(ctx, s.logger, "customers", outcomes)
	s.logCompleted(ctx, "customers", report.Counts, len(created))
	return report, nil
}
