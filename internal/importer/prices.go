package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

// PriceRequest imports net prices into a new price list owned by CompanyID.
type PriceRequest struct {
	CompanyID uuid.UUID
	Rows      []RawRow
	ListName  string
	Currency  string
}

type priceStrategy struct {
	store     Store
	list      store.PriceList
	allowZero bool
}

func (priceStrategy) key(row Row) string {
	return row.Text(fieldSKU)
}

func (ps priceStrategy) plan(ctx context.Context, row Row) (plan[store.PriceListItem], error) {
	var p plan[store.PriceListItem]
	sku := ps.key(row)
	if sku == "" || !row.Has(fieldNetPrice) {
		p.skip = priceExclusion(row, nil, ps.allowZero)
		return p, nil
	}
	net, err := row.Decimal(fieldNetPrice)
	if err != nil {
		return p, err
	}
	if reason := priceExclusion(row, net, ps.allowZero); reason != "" {
		p.skip = reason
		return p, nil
	}

	product, found, err := match(ctx, sku, func(ctx context.Context, key string) (store.Product, error) {
		return ps.store.FindProductBySKU(ctx, ps.list.CompanyID, key)
	})
	if err != nil {
		return p, fmt.Errorf("find product: %w", err)
	}
	if !found {
		p.skip = fmt.Sprintf("SKU %s not found", sku)
		return p, nil
	}
	p.warnings = priceWarnings(sku, *net, product)

	currency := strings.ToUpper(row.Text(fieldCurrency))
	if currency == "" {
		currency = ps.list.Currency
	}
	p.draft = store.PriceListItem{
		PriceListID: ps.list.ID,
		ProductID:   product.ID,
		SKU:         sku,
		NetPrice:    *net,
		Currency:    currency,
	}

	existing, found, err := match(ctx, product.ID.String(), func(ctx context.Context, _ string) (store.PriceListItem, error) {
		return ps.store.FindPriceListItem(ctx, ps.list.ID, product.ID)
	})
	if err != nil {
		return p, fmt.Errorf("find price list item: %w", err)
	}
	if found {
		p.existing = &existing
	}
	return p, nil
}

func (ps priceStrategy) insert(ctx context.Context, draft store.PriceListItem) (store.PriceListItem, error) {
	return ps.store.InsertPriceListItem(ctx, draft)
}

func (ps priceStrategy) update(ctx context.Context, existing, draft store.PriceListItem) (store.PriceListItem, error) {
	draft.ID = existing.ID
	return ps.store.UpdatePriceListItem(ctx, draft)
}

// ImportPrices creates the price list first; if that fails nothing else is
// written. Rows are then reconciled by (price list, product).
func (s *Service) ImportPrices(ctx context.Context, req PriceRequest) (PriceReport, error) {
	if err := s.checkShape(len(req.Rows)); err != nil {
		return PriceReport{}, err
	}

	name := strings.TrimSpace(req.ListName)
	if name == "" {
		name = "Import " + s.now().UTC().Format("2006-01-02")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.opts.DefaultCurrency
	}

	list, err := s.store.CreatePriceList(ctx, store.PriceList{CompanyID: req.CompanyID, Name: name, Currency: currency})
	if err != nil {
		return PriceReport{}, fmt.Errorf("%w: %w", ErrPriceListCreate, err)
	}
	s.logger.InfoContext(ctx, "price_list_created", "price_list_id", list.ID, "company_id", list.CompanyID, "name", list.Name)

	rows := make([]Row, len(req.Rows))
	for i, raw := range req.Rows {
		rows[i] = normalizeRow(i, raw, priceAliases)
		rows[i].Tenant = req.CompanyID
	}

	strategy := priceStrategy{store: s.store, list: list, allowZero: s.opts.AllowZeroPrice}
	outcomes := runBatch[store.PriceListItem](ctx, s.opts.Workers, rows, strategy)
	report := PriceReport{Report: newReport(outcomes, nil), PriceListID: list.ID}
	logFailures(ctx, s.logger, "prices", outcomes)
	s.logCompleted(ctx, "prices", report.Counts, 0)
	return report, nil
}
