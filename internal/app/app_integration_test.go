package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/horeca-backoffice/apps/api/internal/analytics"
	"github.com/horeca-backoffice/apps/api/internal/config"
	"github.com/horeca-backoffice/apps/api/internal/db"
	"github.com/horeca-backoffice/apps/api/internal/store"
)

func TestCustomerImportIsIdempotentOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	companyID := seedCompany(t, ctx, env.pool, "Hotel Adler GmbH")

	payload := importPayload("customers", companyID, []map[string]any{
		{"customer_number": "1001", "name": "Hotel Adler"},
		{"Kundennummer": "1002", "Firma": "Café Krone", "PLZ": "10115"},
	})
	status, body := request(t, env.router, http.MethodPost, "/api/imports/customers", payload, "")
	if status != http.StatusOK {
		t.Fatalf("first import expected 200, got %d (%s)", status, string(body))
	}
	status, body = request(t, env.router, http.MethodPost, "/api/imports/customers", payload, "")
	if status != http.StatusOK {
		t.Fatalf("second import expected 200, got %d (%s)", status, string(body))
	}
	var report struct {
		Inserted int `json:"inserted"`
		Updated  int `json:"updated"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if report.Inserted != 0 || report.Updated != 2 {
		t.Fatalf("expected re-import to update 2 rows, got %+v", report)
	}

	var count int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 customers, got %d", count)
	}
}

func TestCustomerImportProvisionsTenantOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	missing := uuid.New()

	status, body := request(t, env.router, http.MethodPost, "/api/imports/customers",
		importPayload("customers", missing, []map[string]any{{"customer_number": "7"}}), "")
	if status != http.StatusOK {
		t.Fatalf("import expected 200, got %d (%s)", status, string(body))
	}

	var name string
	if err := env.pool.QueryRow(ctx, `SELECT name FROM companies WHERE id = $1`, missing).Scan(&name); err != nil {
		t.Fatalf("load provisioned company: %v", err)
	}
	if name != "Imported company "+missing.String()[:8] {
		t.Fatalf("unexpected placeholder name %q", name)
	}
}

func TestCustomerNumbersAreScopedByTenantOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	companyA := seedCompany(t, ctx, env.pool, "A")
	companyB := seedCompany(t, ctx, env.pool, "B")

	for _, companyID := range []uuid.UUID{companyA, companyB} {
		status, body := request(t, env.router, http.MethodPost, "/api/imports/customers",
			importPayload("customers", companyID, []map[string]any{{"customer_number": "1001", "name": companyID.String()}}), "")
		if status != http.StatusOK {
			t.Fatalf("import expected 200, got %d (%s)", status, string(body))
		}
	}

	st := store.NewPostgres(env.pool)
	a, err := st.FindCustomerByNumber(ctx, companyA, "1001")
	if err != nil {
		t.Fatalf("find customer A: %v", err)
	}
	b, err := st.FindCustomerByNumber(ctx, companyB, "1001")
	if err != nil {
		t.Fatalf("find customer B: %v", err)
	}
	if a.ID == b.ID || *a.Name != companyA.String() || *b.Name != companyB.String() {
		t.Fatalf("expected two tenant-scoped customers, got %+v and %+v", a, b)
	}
}

func TestPriceImportOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	companyID := seedCompany(t, ctx, env.pool, "Brauhaus Nord")
	userID := seedProfile(t, ctx, env.pool, &companyID)
	if _, err := env.pool.Exec(ctx, `
		INSERT INTO products (company_id, sku, name, list_price, cost_price)
		VALUES ($1, 'A1', 'Pils', 40, 30), ($1, 'B2', 'Cola', 10, 5)
	`, companyID); err != nil {
		t.Fatalf("seed products: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"prices":        []map[string]any{{"sku": "A1", "net_price": 50}, {"sku": "B2", "net_price": nil}},
		"priceListName": "Herbst",
	})
	status, body := request(t, env.router, http.MethodPost, "/api/imports/prices", payload, bearer(t, userID))
	if status != http.StatusOK {
		t.Fatalf("price import expected 200, got %d (%s)", status, string(body))
	}
	var report struct {
		PriceListID   uuid.UUID `json:"priceListId"`
		ItemsImported int       `json:"itemsImported"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if report.ItemsImported != 1 {
		t.Fatalf("expected 1 item, got %d", report.ItemsImported)
	}

	var netPrice string
	if err := env.pool.QueryRow(ctx, `SELECT net_price::text FROM price_list_items WHERE price_list_id = $1`, report.PriceListID).Scan(&netPrice); err != nil {
		t.Fatalf("load item: %v", err)
	}
	if !decimal.RequireFromString(netPrice).Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected net price 50, got %s", netPrice)
	}

	var audits int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE company_id = $1 AND action = 'imports.prices'`, companyID).Scan(&audits); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if audits != 1 {
		t.Fatalf("expected 1 audit row, got %d", audits)
	}
}

func TestPriceImportWithoutTenantOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	userID := seedProfile(t, context.Background(), env.pool, nil)

	payload := []byte(`{"prices":[{"sku":"A1","net_price":1}]}`)
	status, body := request(t, env.router, http.MethodPost, "/api/imports/prices", payload, bearer(t, userID))
	if status != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (%s)", status, string(body))
	}
}

func TestPeriodComparisonPathsAgreeOnPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	companyID := seedCompany(t, ctx, env.pool, "Gasthaus Linde")

	var customerID uuid.UUID
	if err := env.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, customer_number, name) VALUES ($1, '1001', 'Linde') RETURNING id
	`, companyID).Scan(&customerID); err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if _, err := env.pool.Exec(ctx, `
		INSERT INTO customer_period_stats (company_id, customer_id, period_start, revenue, volume, orders)
		VALUES ($1, $2, '2026-09-01', 100.50, 10, 3),
		       ($1, $2, '2026-09-15', 49.50, 5, 2),
		       ($1, $2, '2026-08-01', 100, 20, 4)
	`, companyID, customerID); err != nil {
		t.Fatalf("seed periods: %v", err)
	}

	current := analytics.Range{From: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)}
	previous := analytics.Range{From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewPostgres(env.pool)

	precomputed, err := analytics.NewAggregator(st, nil, 0, logger).Compare(ctx, companyID, customerID, current, previous)
	if err != nil {
		t.Fatalf("precomputed compare: %v", err)
	}
	fallback, err := analytics.NewAggregator(fallbackOnly{st}, nil, 0, logger).Compare(ctx, companyID, customerID, current, previous)
	if err != nil {
		t.Fatalf("fallback compare: %v", err)
	}

	want, _ := json.Marshal(precomputed)
	got, _ := json.Marshal(fallback)
	if !bytes.Equal(want, got) {
		t.Fatalf("paths disagree:\nprecomputed %s\nfallback    %s", want, got)
	}
	if precomputed.Changes.RevenuePct.String() != "50" {
		t.Fatalf("expected revenue change 50, got %s", precomputed.Changes.RevenuePct)
	}
}

// fallbackOnly hides the SQL aggregation so the aggregator sums raw rows.
type fallbackOnly struct {
	*store.Postgres
}

func (fallbackOnly) CustomerPeriodComparison(context.Context, uuid.UUID, uuid.UUID, time.Time, time.Time, time.Time, time.Time) (store.PeriodTotals, store.PeriodTotals, error) {
	return store.PeriodTotals{}, store.PeriodTotals{}, errPrecomputedUnavailable
}

type testEnv struct {
	pool   *pgxpool.Pool
	router http.Handler
}

var errPrecomputedUnavailable = errors.New("function customer_period_comparison does not exist")

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if err := db.Migrate(ctx, databaseURL, "up"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	cfg := config.Config{
		Env:                    "test",
		CORSAllowedOrigins:     []string{"*"},
		APIMaxBodyBytes:        2 << 20,
		ImportMaxFileBytes:     8 << 20,
		ImportMaxRows:          500,
		ImportWorkers:          2,
		PlaceholderCompanyName: "Imported company",
		DefaultCurrency:        "EUR",
		JWTSecret:              testSecret,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, err := NewRouter(cfg, Dependencies{Store: store.NewPostgres(pool)}, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}

	return testEnv{pool: pool, router: router}
}

func seedCompany(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := pool.QueryRow(ctx, `INSERT INTO companies (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("seed company: %v", err)
	}
	return id
}

func seedProfile(t *testing.T, ctx context.Context, pool *pgxpool.Pool, companyID *uuid.UUID) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	if _, err := pool.Exec(ctx, `INSERT INTO profiles (user_id, company_id, full_name) VALUES ($1, $2, 'Test User')`, userID, companyID); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return userID
}

func importPayload(field string, companyID uuid.UUID, rows []map[string]any) []byte {
	payload, _ := json.Marshal(map[string]any{field: rows, "company_id": companyID.String()})
	return payload
}

func request(t *testing.T, router http.Handler, method, path string, body []byte, authorization string) (int, []byte) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "127.0.0.1:12345"
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(rec, req)
	respBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, respBody
}
