// Package memstore is an in-memory implementation of the persistence ports.
// It backs service and handler tests and enforces the same unique keys as the
// Postgres schema.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

// Store is safe for concurrent use. Fail, when set, is consulted before every
// operation; a non-nil return is surfaced as that operation's error.
type Store struct {
	mu sync.Mutex

	Fail func(op, key string) error

	companies map[uuid.UUID]store.Company
	profiles  map[uuid.UUID]*uuid.UUID
	customers map[uuid.UUID]store.Customer
	products  map[uuid.UUID]store.Product
	lists     map[uuid.UUID]store.PriceList
	items     map[uuid.UUID]store.PriceListItem
	periods   []periodRecord
	audit     []store.AuditLog

	calls map[string]int
}

type periodRecord struct {
	companyID uuid.UUID
	row       store.PeriodRow
}

func New() *Store {
	return &Store{
		companies: make(map[uuid.UUID]store.Company),
		profiles:  make(map[uuid.UUID]*uuid.UUID),
		customers: make(map[uuid.UUID]store.Customer),
		products:  make(map[uuid.UUID]store.Product),
		lists:     make(map[uuid.UUID]store.PriceList),
		items:     make(map[uuid.UUID]store.PriceListItem),
		calls:     make(map[string]int),
	}
}

func (s *Store) enter(op, key string) error {
	s.calls[op]++
	if s.Fail != nil {
		return s.Fail(op, key)
	}
	return nil
}

// Calls reports how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) AddCompany(id uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[id] = store.Company{ID: id, Name: name, CreatedAt: time.Now().UTC()}
}

// AddProfile links a user to a company; a nil company models a user that
// has not been assigned to a tenant yet.
func (s *Store) AddProfile(userID uuid.UUID, companyID *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = companyID
}

func (s *Store) AddPeriod(companyID uuid.UUID, row store.PeriodRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = append(s.periods, periodRecord{companyID: companyID, row: row})
}

func (s *Store) Company(id uuid.UUID) (store.Company, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	return c, ok
}

func (s *Store) Customers(companyID uuid.UUID) []store.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) Products(companyID uuid.UUID) []store.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) PriceLists(companyID uuid.UUID) []store.PriceList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PriceList, 0, len(s.lists))
	for _, pl := range s.lists {
		if pl.CompanyID == companyID {
			out = append(out, pl)
		}
	}
	return out
}

func (s *Store) PriceListItems(priceListID uuid.UUID) []store.PriceListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PriceListItem, 0, len(s.items))
	for _, it := range s.items {
		if it.PriceListID == priceListID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func (s *Store) AuditLogs() []store.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.AuditLog(nil), s.audit...)
}

func (s *Store) CompanyExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CompanyExists", id.String()); err != nil {
		return false, err
	}
	_, ok := s.companies[id]
	return ok, nil
}

func (s *Store) CreateCompany(_ context.Context, id uuid.UUID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCompany", id.String()); err != nil {
		return false, err
	}
	if _, ok := s.companies[id]; ok {
		return false, nil
	}
	s.companies[id] = store.Company{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (s *Store) CompanyIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CompanyIDForUser", userID.String()); err != nil {
		return uuid.Nil, err
	}
	companyID, ok := s.profiles[userID]
	if !ok || companyID == nil {
		return uuid.Nil, store.ErrNotFound
	}
	return *companyID, nil
}

func (s *Store) FindCustomerByNumber(_ context.Context, companyID uuid.UUID, number string) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindCustomerByNumber", number); err != nil {
		return store.Customer{}, err
	}
	for _, c := range s.customers {
		if c.CompanyID == companyID && c.CustomerNumber != nil && *c.CustomerNumber == number {
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (s *Store) InsertCustomer(_ context.Context, c store.Customer) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertCustomer", deref(c.CustomerNumber)); err != nil {
		return store.Customer{}, err
	}
	if err := s.requireCompany(c.CompanyID); err != nil {
		return store.Customer{}, err
	}
	if c.CustomerNumber != nil {
		for _, existing := range s.customers {
			if existing.CompanyID == c.CompanyID && existing.CustomerNumber != nil && *existing.CustomerNumber == *c.CustomerNumber {
				return store.Customer{}, fmt.Errorf("duplicate key value violates unique constraint \"customers_company_number_uidx\"")
			}
		}
	}
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = now, now
	s.customers[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCustomer(_ context.Context, c store.Customer) (store.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateCustomer", deref(c.CustomerNumber)); err != nil {
		return store.Customer{}, err
	}
	current, ok := s.customers[c.ID]
	if !ok || current.CompanyID != c.CompanyID {
		return store.Customer{}, store.ErrNotFound
	}
	coalesce(&current.CustomerNumber, c.CustomerNumber)
	coalesce(&current.Name, c.Name)
	coalesce(&current.ContactPerson, c.ContactPerson)
	coalesce(&current.Email, c.Email)
	coalesce(&current.Phone, c.Phone)
	coalesce(&current.Street, c.Street)
	coalesce(&current.PostalCode, c.PostalCode)
	coalesce(&current.City, c.City)
	coalesce(&current.Country, c.Country)
	current.UpdatedAt = time.Now().UTC()
	s.customers[c.ID] = current
	return current, nil
}

func (s *Store) FindProductBySKU(_ context.Context, companyID uuid.UUID, sku string) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindProductBySKU", sku); err != nil {
		return store.Product{}, err
	}
	for _, p := range s.products {
		if p.CompanyID == companyID && p.SKU != nil && *p.SKU == sku {
			return p, nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (s *Store) FindProductByID(_ context.Context, companyID, id uuid.UUID) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindProductByID", id.String()); err != nil {
		return store.Product{}, err
	}
	p, ok := s.products[id]
	if !ok || p.CompanyID != companyID {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) InsertProduct(_ context.Context, p store.Product) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertProduct", deref(p.SKU)); err != nil {
		return store.Product{}, err
	}
	if err := s.requireCompany(p.CompanyID); err != nil {
		return store.Product{}, err
	}
	if p.SKU != nil {
		for _, existing := range s.products {
			if existing.CompanyID == p.CompanyID && existing.SKU != nil && *existing.SKU == *p.SKU {
				return store.Product{}, fmt.Errorf("duplicate key value violates unique constraint \"products_company_sku_uidx\"")
			}
		}
	}
	if p.Active == nil {
		active := true
		p.Active = &active
	}
	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now, now
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) UpdateProduct(_ context.Context, p store.Product) (store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateProduct", deref(p.SKU)); err != nil {
		return store.Product{}, err
	}
	current, ok := s.products[p.ID]
	if !ok || current.CompanyID != p.CompanyID {
		return store.Product{}, store.ErrNotFound
	}
	coalesce(&current.SKU, p.SKU)
	coalesce(&current.Name, p.Name)
	coalesce(&current.Description, p.Description)
	coalesce(&current.Category, p.Category)
	coalesce(&current.Unit, p.Unit)
	coalesce(&current.EAN, p.EAN)
	coalesce(&current.ListPrice, p.ListPrice)
	coalesce(&current.CostPrice, p.CostPrice)
	coalesce(&current.VATRate, p.VATRate)
	coalesce(&current.Active, p.Active)
	current.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = current
	return current, nil
}

func (s *Store) CreatePriceList(_ context.Context, pl store.PriceList) (store.PriceList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreatePriceList", pl.Name); err != nil {
		return store.PriceList{}, err
	}
	if err := s.requireCompany(pl.CompanyID); err != nil {
		return store.PriceList{}, err
	}
	pl.ID = uuid.New()
	pl.CreatedAt = time.Now().UTC()
	s.lists[pl.ID] = pl
	return pl, nil
}

func (s *Store) FindPriceListItem(_ context.Context, priceListID, productID uuid.UUID) (store.PriceListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindPriceListItem", productID.String()); err != nil {
		return store.PriceListItem{}, err
	}
	for _, it := range s.items {
		if it.PriceListID == priceListID && it.ProductID == productID {
			return it, nil
		}
	}
	return store.PriceListItem{}, store.ErrNotFound
}

func (s *Store) InsertPriceListItem(_ context.Context, item store.PriceListItem) (store.PriceListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertPriceListItem", item.SKU); err != nil {
		return store.PriceListItem{}, err
	}
	if _, ok := s.lists[item.PriceListID]; !ok {
		return store.PriceListItem{}, fmt.Errorf("insert price list item: price list %s does not exist", item.PriceListID)
	}
	for _, existing := range s.items {
		if existing.PriceListID == item.PriceListID && existing.ProductID == item.ProductID {
			return store.PriceListItem{}, fmt.Errorf("duplicate key value violates unique constraint \"price_list_items_price_list_id_product_id_key\"")
		}
	}
	now := time.Now().UTC()
	item.ID = uuid.New()
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.ID] = item
	return item, nil
}

func (s *Store) UpdatePriceListItem(_ context.Context, item store.PriceListItem) (store.PriceListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdatePriceListItem", item.SKU); err != nil {
		return store.PriceListItem{}, err
	}
	current, ok := s.items[item.ID]
	if !ok || current.PriceListID != item.PriceListID {
		return store.PriceListItem{}, store.ErrNotFound
	}
	current.SKU = item.SKU
	current.NetPrice = item.NetPrice
	current.Currency = item.Currency
	current.UpdatedAt = time.Now().UTC()
	s.items[item.ID] = current
	return current, nil
}

func (s *Store) CustomerPeriodComparison(_ context.Context, companyID, customerID uuid.UUID, from, to, prevFrom, prevTo time.Time) (store.PeriodTotals, store.PeriodTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CustomerPeriodComparison", customerID.String()); err != nil {
		return store.PeriodTotals{}, store.PeriodTotals{}, err
	}
	var current, previous store.PeriodTotals
	for _, rec := range s.matchingPeriods(companyID, customerID, from, to) {
		addTotals(&current, rec)
	}
	for _, rec := range s.matchingPeriods(companyID, customerID, prevFrom, prevTo) {
		addTotals(&previous, rec)
	}
	return current, previous, nil
}

func (s *Store) ListCustomerPeriods(_ context.Context, companyID, customerID uuid.UUID, from, to time.Time) ([]store.PeriodRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListCustomerPeriods", customerID.String()); err != nil {
		return nil, err
	}
	return s.matchingPeriods(companyID, customerID, from, to), nil
}

func (s *Store) InsertAuditLog(_ context.Context, entry store.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertAuditLog", entry.Action); err != nil {
		return err
	}
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) requireCompany(id uuid.UUID) error {
	if _, ok := s.companies[id]; !ok {
		return fmt.Errorf("insert or update violates foreign key constraint: company %s does not exist", id)
	}
	return nil
}

func (s *Store) matchingPeriods(companyID, customerID uuid.UUID, from, to time.Time) []store.PeriodRow {
	out := make([]store.PeriodRow, 0)
	for _, rec := range s.periods {
		if rec.companyID != companyID || rec.row.CustomerID != customerID {
			continue
		}
		if rec.row.PeriodStart.Before(from) || rec.row.PeriodStart.After(to) {
			continue
		}
		out = append(out, rec.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out
}

func addTotals(t *store.PeriodTotals, row store.PeriodRow) {
	t.Revenue = t.Revenue.Add(row.Revenue)
	t.Volume = t.Volume.Add(row.Volume)
	t.Orders += row.Orders
}

func coalesce[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
