package importer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawRow is one untrusted record exactly as received from JSON or a sheet.
type RawRow map[string]any

// Row is a RawRow resolved against an alias table. It is read-only once
// built: validation and planning never write back into it.
type Row struct {
	Index  int
	Tenant uuid.UUID

	tenantErr error
	values    map[string]any
}

func normalizeRow(index int, raw RawRow, table aliasTable) Row {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	folded := make(map[string]any, len(raw))
	for _, k := range keys {
		fk := foldKey(k)
		if current, seen := folded[fk]; seen && !isBlank(current) {
			continue
		}
		folded[fk] = raw[k]
	}

	values := make(map[string]any, len(table))
	for _, entry := range table {
		for _, alias := range entry.aliases {
			if v, ok := folded[foldKey(alias)]; ok && !isBlank(v) {
				values[entry.field] = v
				break
			}
		}
	}
	return Row{Index: index, values: values}
}

func (r Row) Empty() bool {
	return len(r.values) == 0
}

func (r Row) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

func (r Row) Text(field string) string {
	v, ok := r.values[field]
	if !ok {
		return ""
	}
	return stringify(v)
}

func (r Row) TextPtr(field string) *string {
	v := r.Text(field)
	if v == "" {
		return nil
	}
	return &v
}

// Decimal returns nil when the field is absent and an error when it is
// present but not numeric.
func (r Row) Decimal(field string) (*decimal.Decimal, error) {
	v, ok := r.values[field]
	if !ok {
		return nil, nil
	}
	d, err := toDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &d, nil
}

func (r Row) Bool(field string) (*bool, error) {
	v, ok := r.values[field]
	if !ok {
		return nil, nil
	}
	if b, ok := v.(bool); ok {
		return &b, nil
	}
	switch strings.ToLower(stringify(v)) {
	case "1", "true", "yes", "y", "ja", "x", "aktiv":
		b := true
		return &b, nil
	case "0", "false", "no", "n", "nein", "inaktiv":
		b := false
		return &b, nil
	}
	return nil, fmt.Errorf("%s: %q is not a boolean", field, stringify(v))
}

func (r Row) UUID(field string) (*uuid.UUID, error) {
	raw := r.Text(field)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a valid id", field, raw)
	}
	return &id, nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return parseLocaleDecimal(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case string:
		return parseLocaleDecimal(t)
	}
	return decimal.Zero, fmt.Errorf("%v is not a number", v)
}

var currencyStripper = strings.NewReplacer(" ", "", "\u00a0", "", "€", "", "EUR", "", "eur", "")

// parseLocaleDecimal accepts "12.5", "12,50", "1.234,56" and "1,234.56". When
// both separators occur the later one is the decimal mark; a lone separator
// that repeats is a thousands mark.
func parseLocaleDecimal(raw string) (decimal.Decimal, error) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	return d, nil
}
