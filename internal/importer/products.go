package importer

import (
	"context"
	"fmt"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

type productStrategy struct {
	store Store
}

// key is the SKU, or the surrogate id for rows that carry only that.
func (productStrategy) key(row Row) string {
	if sku := row.Text(fieldSKU); sku != "" {
		return sku
	}
	if id := row.Text(fieldID); id != "" {
		return "id:" + id
	}
	return ""
}

// sequential reports id-only rows: the id may belong to a product that other
// rows in the batch address by SKU.
func (productStrategy) sequential(row Row) bool {
	return row.Text(fieldSKU) == "" && row.Text(fieldID) != ""
}

func (ps productStrategy) plan(ctx context.Context, row Row) (plan[store.Product], error) {
	var p plan[store.Product]
	if row.Empty() {
		p.skip = fmt.Sprintf("row %d: no recognizable product fields", row.Index+1)
		return p, nil
	}
	if row.tenantErr != nil {
		return p, row.tenantErr
	}

	listPrice, err := row.Decimal(fieldListPrice)
	if err != nil {
		return p, err
	}
	costPrice, err := row.Decimal(fieldCostPrice)
	if err != nil {
		return p, err
	}
	vatRate, err := row.Decimal(fieldVATRate)
	if err != nil {
		return p, err
	}
	active, err := row.Bool(fieldActive)
	if err != nil {
		return p, err
	}

	p.draft = store.Product{
		CompanyID:   row.Tenant,
		SKU:         row.TextPtr(fieldSKU),
		Name:        row.TextPtr(fieldName),
		Description: row.TextPtr(fieldDescription),
		Category:    row.TextPtr(fieldCategory),
		Unit:        row.TextPtr(fieldUnit),
		EAN:         row.TextPtr(fieldEAN),
		ListPrice:   listPrice,
		CostPrice:   costPrice,
		VATRate:     vatRate,
		Active:      active,
	}

	sku := row.Text(fieldSKU)
	label := "SKU " + sku
	var (
		existing store.Product
		found    bool
	)
	switch {
	case sku != "":
		existing, found, err = match(ctx, sku, func(ctx context.Context, key string) (store.Product, error) {
			return ps.store.FindProductBySKU(ctx, row.Tenant, key)
		})
	case row.Has(fieldID):
		label = fmt.Sprintf("row %d", row.Index+1)
		id, idErr := row.UUID(fieldID)
		if idErr != nil {
			return p, idErr
		}
		existing, found, err = match(ctx, id.String(), func(ctx context.Context, _ string) (store.Product, error) {
			return ps.store.FindProductByID(ctx, row.Tenant, *id)
		})
		if err == nil && !found {
			p.warnings = append(p.warnings, label+": no SKU and unknown id, inserted as a new product")
		}
	default:
		label = fmt.Sprintf("row %d", row.Index+1)
		p.warnings = append(p.warnings, label+": no SKU, inserted without a match key")
	}
	if err != nil {
		return p, fmt.Errorf("find product: %w", err)
	}
	p.warnings = append(p.warnings, productWarnings(label, p.draft)...)
	if found {
		p.existing = &existing
	}
	return p, nil
}

func (ps productStrategy) insert(ctx context.Context, draft store.Product) (store.Product, error) {
	return ps.store.InsertProduct(ctx, draft)
}

func (ps productStrategy) update(ctx context.Context, existing, draft store.Product) (store.Product, error) {
	draft.ID = existing.ID
	draft.CompanyID = existing.CompanyID
	return ps.store.UpdateProduct(ctx, draft)
}

// ImportProducts reconciles products by (company, SKU), falling back to the
// product id within the company for rows without a SKU.
func (s *Service) ImportProducts(ctx context.Context, req BatchRequest) (Report[store.Product], error) {
	if err := s.checkShape(len(req.Rows)); err != nil {
		return Report[store.Product]{}, err
	}
	rows, tenants, err := s.prepareTenantRows(req.Rows, req.CompanyID, productAliases)
	if err != nil {
		return Report[store.Product]{}, err
	}
	created, err := s.provisioner.Ensure(ctx, tenants)
	if err != nil {
		return Report[store.Product]{}, err
	}

	outcomes := runBatch[store.Product](ctx, s.opts.Workers, rows, productStrategy{store: s.store})
	report := newReport(outcomes, created)
	logFailures(ctx, s.logger, "products", outcomes)
	s.logCompleted(ctx, "products", report.Counts, len(created))
	return report, nil
}
