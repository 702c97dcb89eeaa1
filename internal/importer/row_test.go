package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocaleDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.5", "12.5"},
		{"12,50", "12.5"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1.234.567", "1234567"},
		{" 7 € ", "7"},
		{"-3,2", "-3.2"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseLocaleDecimal(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}

	_, err := parseLocaleDecimal("abc")
	assert.Error(t, err)
	_, err = parseLocaleDecimal("  ")
	assert.Error(t, err)
}

func TestNormalizeRowResolvesAliases(t *testing.T) {
	row := normalizeRow(0, RawRow{
		"Artikelnummer": "A1",
		"Nettopreis":    "12,50",
		"Währung":       "eur",
	}, priceAliases)

	assert.Equal(t, "A1", row.Text(fieldSKU))
	price, err := row.Decimal(fieldNetPrice)
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "12.5", price.String())
	assert.Equal(t, "eur", row.Text(fieldCurrency))
}

func TestNormalizeRowFoldsHeaders(t *testing.T) {
	row := normalizeRow(0, RawRow{
		"\ufeffKundennummer": "K-1",
		"STRASSE":            "Hauptstraße 1",
		"Postal Code":        "10115",
		"E-Mail":             "info@example.com",
	}, customerAliases)

	assert.Equal(t, "K-1", row.Text(fieldCustomerNumber))
	assert.Equal(t, "Hauptstraße 1", row.Text(fieldStreet))
	assert.Equal(t, "10115", row.Text(fieldPostalCode))
	assert.Equal(t, "info@example.com", row.Text(fieldEmail))
}

func TestNormalizeRowSkipsBlankAliases(t *testing.T) {
	row := normalizeRow(0, RawRow{"sku": "  ", "artnr": "B2"}, priceAliases)
	assert.Equal(t, "B2", row.Text(fieldSKU))

	empty := normalizeRow(0, RawRow{"unrelated": "x", "sku": nil}, priceAliases)
	assert.True(t, empty.Empty())
	assert.False(t, empty.Has(fieldSKU))
}

func TestRowTypedAccessors(t *testing.T) {
	row := normalizeRow(0, RawRow{
		"customer_number": json.Number("1001"),
		"list_price":      float64(9.99),
		"aktiv":           "nein",
		"vat_rate":        "n/a",
	}, append(append(aliasTable{}, customerAliases...), productAliases...))

	assert.Equal(t, "1001", row.Text(fieldCustomerNumber))

	price, err := row.Decimal(fieldListPrice)
	require.NoError(t, err)
	assert.Equal(t, "9.99", price.String())

	active, err := row.Bool(fieldActive)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	_, err = row.Decimal(fieldVATRate)
	assert.ErrorContains(t, err, "vat_rate")

	missing, err := row.Decimal(fieldCostPrice)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
