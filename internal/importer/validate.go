package importer

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

var fieldValidator = validator.New(validator.WithRequiredStructEnabled())

// priceWarnings checks a net price against the matched product's bounds.
// Both findings are advisory; the item is still written.
func priceWarnings(sku string, net decimal.Decimal, product store.Product) []string {
	var warnings []string
	if product.ListPrice != nil && net.GreaterThan(*product.ListPrice) {
		warnings = append(warnings, fmt.Sprintf("SKU %s: net price %s exceeds list price %s", sku, net.String(), product.ListPrice.String()))
	}
	if product.CostPrice != nil && net.LessThan(*product.CostPrice) {
		warnings = append(warnings, fmt.Sprintf("SKU %s: net price %s is below cost price %s", sku, net.String(), product.CostPrice.String()))
	}
	return warnings
}

// priceExclusion reports why a price row must be skipped before any lookup:
// a missing SKU, or a price that is absent or falsy.
func priceExclusion(row Row, net *decimal.Decimal, allowZero bool) string {
	if row.Text(fieldSKU) == "" || net == nil || (net.IsZero() && !allowZero) {
		return fmt.Sprintf("row %d: missing SKU or price", row.Index+1)
	}
	return ""
}

func customerWarnings(label string, c store.Customer) []string {
	var warnings []string
	if c.Email != nil {
		if err := fieldValidator.Var(*c.Email, "email"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: email %q looks invalid", label, *c.Email))
		}
	}
	return warnings
}

func productWarnings(label string, p store.Product) []string {
	var warnings []string
	if p.EAN != nil {
		if err := fieldValidator.Var(*p.EAN, "numeric,min=8,max=14"); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: EAN %q looks invalid", label, *p.EAN))
		}
	}
	return warnings
}
