package importer

import (
	"strings"

	"golang.org/x/text/cases"
)

// Canonical field names. Every entry point resolves external spellings into
// these once, at normalization time.
const (
	fieldID             = "id"
	fieldCompanyID      = "company_id"
	fieldCustomerNumber = "customer_number"
	fieldName           = "name"
	fieldContactPerson  = "contact_person"
	fieldEmail          = "email"
	fieldPhone          = "phone"
	fieldStreet         = "street"
	fieldPostalCode     = "postal_code"
	fieldCity           = "city"
	fieldCountry        = "country"
	fieldSKU            = "sku"
	fieldDescription    = "description"
	fieldCategory       = "category"
	fieldUnit           = "unit"
	fieldEAN            = "ean"
	fieldListPrice      = "list_price"
	fieldCostPrice      = "cost_price"
	fieldVATRate        = "vat_rate"
	fieldActive         = "active"
	fieldNetPrice       = "net_price"
	fieldCurrency       = "currency"
)

type fieldAliases struct {
	field   string
	aliases []string
}

// aliasTable is ordered: the first alias carrying a non-blank value wins.
type aliasTable []fieldAliases

var skuAliases = []string{"sku", "artikelnummer", "article_number", "articleNumber", "artnr", "art_nr", "item_number"}

var customerAliases = aliasTable{
	{fieldCompanyID, []string{"company_id", "companyId", "mandant"}},
	{fieldCustomerNumber, []string{"customer_number", "customerNumber", "kundennummer", "kundennr", "kdnr", "number"}},
	{fieldName, []string{"name", "company_name", "companyName", "firmenname", "firma"}},
	{fieldContactPerson, []string{"contact_person", "contactPerson", "ansprechpartner", "kontakt"}},
	{fieldEmail, []string{"email", "e-mail", "mail"}},
	{fieldPhone, []string{"phone", "phone_number", "telefon", "tel"}},
	{fieldStreet, []string{"street", "address", "straße", "adresse"}},
	{fieldPostalCode, []string{"postal_code", "postalCode", "zip", "plz", "postleitzahl"}},
	{fieldCity, []string{"city", "ort", "stadt"}},
	{fieldCountry, []string{"country", "land"}},
}

var productAliases = aliasTable{
	{fieldID, []string{"id"}},
	{fieldCompanyID, []string{"company_id", "companyId", "mandant"}},
	{fieldSKU, skuAliases},
	{fieldName, []string{"name", "product_name", "productName", "bezeichnung", "artikelname"}},
	{fieldDescription, []string{"description", "beschreibung"}},
	{fieldCategory, []string{"category", "kategorie", "warengruppe"}},
	{fieldUnit, []string{"unit", "einheit", "verpackungseinheit"}},
	{fieldEAN, []string{"ean", "gtin", "barcode"}},
	{fieldListPrice, []string{"list_price", "listPrice", "listenpreis", "price", "preis", "vk"}},
	{fieldCostPrice, []string{"cost_price", "costPrice", "einkaufspreis", "ek"}},
	{fieldVATRate, []string{"vat_rate", "vatRate", "mwst", "ust", "tax_rate"}},
	{fieldActive, []string{"active", "aktiv"}},
}

var priceAliases = aliasTable{
	{fieldSKU, skuAliases},
	{fieldNetPrice, []string{"net_price", "netPrice", "nettopreis", "price", "preis"}},
	{fieldCurrency, []string{"currency", "währung", "waehrung"}},
}

var headerReplacer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// foldKey makes header and JSON key comparison insensitive to case, German
// sharp s, surrounding space and common separators.
func foldKey(raw string) string {
	key := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
	// Casers keep state, so one is created per call.
	key = cases.Fold().String(key)
	return headerReplacer.Replace(key)
}
