package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by every Find* method when no row matches.
var ErrNotFound = errors.New("record not found")

type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Customer fields other than the identity are optional. Nil means "not
// provided": inserts store NULL, updates keep the current value.
type Customer struct {
	ID             uuid.UUID
	CompanyID      uuid.UUID
	CustomerNumber *string
	Name           *string
	ContactPerson  *string
	Email          *string
	Phone          *string
	Street         *string
	PostalCode     *string
	City           *string
	Country        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Product struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	SKU         *string
	Name        *string
	Description *string
	Category    *string
	Unit        *string
	EAN         *string
	ListPrice   *decimal.Decimal
	CostPrice   *decimal.Decimal
	VATRate     *decimal.Decimal
	Active      *bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PriceList struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Currency  string
	CreatedAt time.Time
}

type PriceListItem struct {
	ID          uuid.UUID
	PriceListID uuid.UUID
	ProductID   uuid.UUID
	SKU         string
	NetPrice    decimal.Decimal
	Currency    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PeriodRow is one raw customer_period_stats row.
type PeriodRow struct {
	CustomerID  uuid.UUID
	PeriodStart time.Time
	Revenue     decimal.Decimal
	Volume      decimal.Decimal
	Orders      int64
}

type PeriodTotals struct {
	Revenue decimal.Decimal
	Volume  decimal.Decimal
	Orders  int64
}

type AuditLog struct {
	CompanyID  uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	RequestID  *string
	Metadata   []byte
}
