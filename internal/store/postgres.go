package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres implements the importer, analytics and audit persistence ports on
// top of a pgx pool. Numeric columns travel as text so decimals never pass
// through float64.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const (
	customerColumns = `id, company_id, customer_number, name, contact_person, email, phone, street, postal_code, city, country, created_at, updated_at`
	productColumns  = `id, company_id, sku, name, description, category, unit, ean, list_price::text, cost_price::text, vat_rate::text, active, created_at, updated_at`
	itemColumns     = `id, price_list_id, product_id, sku, net_price::text, currency, created_at, updated_at`
)

func (p *Postgres) CompanyExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check company: %w", err)
	}
	return exists, nil
}

func (p *Postgres) CreateCompany(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO companies (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, name)
	if err != nil {
		return false, fmt.Errorf("insert company: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) CompanyIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var companyID *uuid.UUID
	err := p.pool.QueryRow(ctx, `SELECT company_id FROM profiles WHERE user_id = $1`, userID).Scan(&companyID)
	if err != nil {
		return uuid.Nil, notFound(err)
	}
	if companyID == nil {
		return uuid.Nil, ErrNotFound
	}
	return *companyID, nil
}

func (p *Postgres) FindCustomerByNumber(ctx context.Context, companyID uuid.UUID, number string) (Customer, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE company_id = $1 AND customer_number = $2`, companyID, number)
	return scanCustomer(row)
}

func (p *Postgres) InsertCustomer(ctx context.Context, c Customer) (Customer, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, customer_number, name, contact_person, email, phone, street, postal_code, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+customerColumns,
		c.CompanyID, c.CustomerNumber, c.Name, c.ContactPerson, c.Email, c.Phone, c.Street, c.PostalCode, c.City, c.Country,
	)
	return scanCustomer(row)
}

func (p *Postgres) UpdateCustomer(ctx context.Context, c Customer) (Customer, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE customers SET
			customer_number = COALESCE($3, customer_number),
			name            = COALESCE($4, name),
			contact_person  = COALESCE($5, contact_person),
			email           = COALESCE($6, email),
			phone           = COALESCE($7, phone),
			street          = COALESCE($8, street),
			postal_code     = COALESCE($9, postal_code),
			city            = COALESCE($10, city),
			country         = COALESCE($11, country),
			updated_at      = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+customerColumns,
		c.ID, c.CompanyID, c.CustomerNumber, c.Name, c.ContactPerson, c.Email, c.Phone, c.Street, c.PostalCode, c.City, c.Country,
	)
	return scanCustomer(row)
}

func (p *Postgres) FindProductBySKU(ctx context.Context, companyID uuid.UUID, sku string) (Product, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 AND sku = $2`, companyID, sku)
	return scanProduct(row)
}

func (p *Postgres) FindProductByID(ctx context.Context, companyID, id uuid.UUID) (Product, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanProduct(row)
}

func (p *Postgres) InsertProduct(ctx context.Context, pr Product) (Product, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, sku, name, description, category, unit, ean, list_price, cost_price, vat_rate, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9::text::numeric, $10::text::numeric, COALESCE($11, TRUE))
		RETURNING `+productColumns,
		pr.CompanyID, pr.SKU, pr.Name, pr.Description, pr.Category, pr.Unit, pr.EAN,
		decimalText(pr.ListPrice), decimalText(pr.CostPrice), decimalText(pr.VATRate), pr.Active,
	)
	return scanProduct(row)
}

func (p *Postgres) UpdateProduct(ctx context.Context, pr Product) (Product, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE products SET
			sku         = COALESCE($3, sku),
			name        = COALESCE($4, name),
			description = COALESCE($5, description),
			category    = COALESCE($6, category),
			unit        = COALESCE($7, unit),
			ean         = COALESCE($8, ean),
			list_price  = COALESCE($9::text::numeric, list_price),
			cost_price  = COALESCE($10::text::numeric, cost_price),
			vat_rate    = COALESCE($11::text::numeric, vat_rate),
			active      = COALESCE($12, active),
			updated_at  = now()
		WHERE id = $1 AND company_id = $2
		RETURNING `+productColumns,
		pr.ID, pr.CompanyID, pr.SKU, pr.Name, pr.Description, pr.Category, pr.Unit, pr.EAN,
		decimalText(pr.ListPrice), decimalText(pr.CostPrice), decimalText(pr.VATRate), pr.Active,
	)
	return scanProduct(row)
}

func (p *Postgres) CreatePriceList(ctx context.Context, pl PriceList) (PriceList, error) {
	var out PriceList
	err := p.pool.QueryRow(ctx, `
		INSERT INTO price_lists (company_id, name, currency)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, name, currency, created_at
	`, pl.CompanyID, pl.Name, pl.Currency).Scan(&out.ID, &out.CompanyID, &out.Name, &out.Currency, &out.CreatedAt)
	if err != nil {
		return PriceList{}, fmt.Errorf("insert price list: %w", err)
	}
	return out, nil
}

func (p *Postgres) FindPriceListItem(ctx context.Context, priceListID, productID uuid.UUID) (PriceListItem, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM price_list_items WHERE price_list_id = $1 AND product_id = $2`, priceListID, productID)
	return scanItem(row)
}

func (p *Postgres) InsertPriceListItem(ctx context.Context, item PriceListItem) (PriceListItem, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO price_list_items (price_list_id, product_id, sku, net_price, currency)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
		RETURNING `+itemColumns,
		item.PriceListID, item.ProductID, item.SKU, item.NetPrice.String(), item.Currency,
	)
	return scanItem(row)
}

func (p *Postgres) UpdatePriceListItem(ctx context.Context, item PriceListItem) (PriceListItem, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE price_list_items SET
			sku        = $3,
			net_price  = $4::text::numeric,
			currency   = $5,
			updated_at = now()
		WHERE id = $1 AND price_list_id = $2
		RETURNING `+itemColumns,
		item.ID, item.PriceListID, item.SKU, item.NetPrice.String(), item.Currency,
	)
	return scanItem(row)
}

func (p *Postgres) CustomerPeriodComparison(ctx context.Context, companyID, customerID uuid.UUID, from, to, prevFrom, prevTo time.Time) (PeriodTotals, PeriodTotals, error) {
	var (
		curRevenue, curVolume, prevRevenue, prevVolume string
		current, previous                              PeriodTotals
	)
	err := p.pool.QueryRow(ctx, `
		SELECT current_revenue::text, current_volume::text, current_orders,
		       previous_revenue::text, previous_volume::text, previous_orders
		FROM customer_period_comparison($1, $2, $3, $4, $5, $6)
	`, companyID, customerID, from, to, prevFrom, prevTo).Scan(
		&curRevenue, &curVolume, &current.Orders,
		&prevRevenue, &prevVolume, &previous.Orders,
	)
	if err != nil {
		return PeriodTotals{}, PeriodTotals{}, fmt.Errorf("call customer_period_comparison: %w", err)
	}
	for _, pair := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{curRevenue, &current.Revenue},
		{curVolume, &current.Volume},
		{prevRevenue, &previous.Revenue},
		{prevVolume, &previous.Volume},
	} {
		value, err := decimal.NewFromString(pair.raw)
		if err != nil {
			return PeriodTotals{}, PeriodTotals{}, fmt.Errorf("parse aggregate %q: %w", pair.raw, err)
		}
		*pair.dst = value
	}
	return current, previous, nil
}

func (p *Postgres) ListCustomerPeriods(ctx context.Context, companyID, customerID uuid.UUID, from, to time.Time) ([]PeriodRow, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT customer_id, period_start, revenue::text, volume::text, orders
		FROM customer_period_stats
		WHERE company_id = $1
		  AND customer_id = $2
		  AND period_start BETWEEN $3 AND $4
		ORDER BY period_start
	`, companyID, customerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query customer periods: %w", err)
	}
	defer rows.Close()

	result := make([]PeriodRow, 0, 16)
	for rows.Next() {
		var (
			row             PeriodRow
			revenue, volume string
		)
		if err := rows.Scan(&row.CustomerID, &row.PeriodStart, &revenue, &volume, &row.Orders); err != nil {
			return nil, fmt.Errorf("scan customer period: %w", err)
		}
		if row.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("parse revenue: %w", err)
		}
		if row.Volume, err = decimal.NewFromString(volume); err != nil {
			return nil, fmt.Errorf("parse volume: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer periods: %w", err)
	}
	return result, nil
}

func (p *Postgres) InsertAuditLog(ctx context.Context, entry AuditLog) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO audit_log (company_id, user_id, action, entity_type, entity_id, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.CompanyID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.RequestID, entry.Metadata)
	return err
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.CustomerNumber, &c.Name, &c.ContactPerson, &c.Email, &c.Phone,
		&c.Street, &c.PostalCode, &c.City, &c.Country, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Customer{}, notFound(err)
	}
	return c, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		pr                             Product
		listPrice, costPrice, vatRate *string
	)
	err := row.Scan(
		&pr.ID, &pr.CompanyID, &pr.SKU, &pr.Name, &pr.Description, &pr.Category, &pr.Unit, &pr.EAN,
		&listPrice, &costPrice, &vatRate, &pr.Active, &pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return Product{}, notFound(err)
	}
	if pr.ListPrice, err = parseDecimalPtr(listPrice); err != nil {
		return Product{}, fmt.Errorf("parse list_price: %w", err)
	}
	if pr.CostPrice, err = parseDecimalPtr(costPrice); err != nil {
		return Product{}, fmt.Errorf("parse cost_price: %w", err)
	}
	if pr.VATRate, err = parseDecimalPtr(vatRate); err != nil {
		return Product{}, fmt.Errorf("parse vat_rate: %w", err)
	}
	return pr, nil
}

func scanItem(row pgx.Row) (PriceListItem, error) {
	var (
		item     PriceListItem
		netPrice string
	)
	err := row.Scan(&item.ID, &item.PriceListID, &item.ProductID, &item.SKU, &netPrice, &item.Currency, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return PriceListItem{}, notFound(err)
	}
	if item.NetPrice, err = decimal.NewFromString(netPrice); err != nil {
		return PriceListItem{}, fmt.Errorf("parse net_price: %w", err)
	}
	return item, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimalPtr(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
