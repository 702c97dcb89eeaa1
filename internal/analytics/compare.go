// Package analytics compares a customer's sales between two date ranges.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

var ErrInvalidRange = errors.New("range start is after its end")

var hundred = decimal.NewFromInt(100)

type Store interface {
	CustomerPeriodComparison(ctx context.Context, companyID, customerID uuid.UUID, from, to, prevFrom, prevTo time.Time) (store.PeriodTotals, store.PeriodTotals, error)
	ListCustomerPeriods(ctx context.Context, companyID, customerID uuid.UUID, from, to time.Time) ([]store.PeriodRow, error)
}

// Cache is optional. Get reports found=false on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Range is inclusive on both ends and compared at day granularity.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) normalized() Range {
	return Range{From: day(r.From), To: day(r.To)}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Metrics struct {
	Revenue decimal.Decimal `json:"revenue"`
	Volume  decimal.Decimal `json:"volume"`
	Orders  int64           `json:"orders"`
}

// Changes are percentages rounded to two places; a zero previous value
// yields 0.
type Changes struct {
	RevenuePct decimal.Decimal `json:"revenue_pct"`
	VolumePct  decimal.Decimal `json:"volume_pct"`
	OrdersPct  decimal.Decimal `json:"orders_pct"`
}

type Comparison struct {
	Current  Metrics `json:"current"`
	Previous Metrics `json:"previous"`
	Changes  Changes `json:"changes"`
}

type Aggregator struct {
	store  Store
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewAggregator accepts a nil cache; ttl <= 0 disables caching as well.
func NewAggregator(st Store, cache Cache, ttl time.Duration, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		cache = nil
	}
	return &Aggregator{store: st, cache: cache, ttl: ttl, logger: logger}
}

// Compare prefers the precomputed aggregation and falls back to summing raw
// period rows when it fails. Both paths give the same result.
func (a *Aggregator) Compare(ctx context.Context, companyID, customerID uuid.UUID, primary, comparison Range) (Comparison, error) {
	primary, comparison = primary.normalized(), comparison.normalized()
	if primary.From.After(primary.To) || comparison.From.After(comparison.To) {
		return Comparison{}, ErrInvalidRange
	}

	key := cacheKey(companyID, customerID, primary, comparison)
	if cached, ok := a.fromCache(ctx, key); ok {
		return cached, nil
	}

	current, previous, err := a.store.CustomerPeriodComparison(ctx, companyID, customerID, primary.From, primary.To, comparison.From, comparison.To)
	if err != nil {
		a.logger.WarnContext(ctx, "analytics_precomputed_failed", "customer_id", customerID, "error", err)
		current, previous, err = a.sumPeriods(ctx, companyID, customerID, primary, comparison)
		if err != nil {
			return Comparison{}, fmt.Errorf("aggregate customer periods: %w", err)
		}
	}

	result := build(current, previous)
	a.toCache(ctx, key, result)
	return result, nil
}

func (a *Aggregator) sumPeriods(ctx context.Context, companyID, customerID uuid.UUID, primary, comparison Range) (store.PeriodTotals, store.PeriodTotals, error) {
	var current, previous store.PeriodTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.store.ListCustomerPeriods(gctx, companyID, customerID, primary.From, primary.To)
		if err != nil {
			return err
		}
		current = sum(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := a.store.ListCustomerPeriods(gctx, companyID, customerID, comparison.From, comparison.To)
		if err != nil {
			return err
		}
		previous = sum(rows)
		return nil
	})
	if err := g.Wait(); err != nil {
		return store.PeriodTotals{}, store.PeriodTotals{}, err
	}
	return current, previous, nil
}

func sum(rows []store.PeriodRow) store.PeriodTotals {
	var t store.PeriodTotals
	for _, r := range rows {
		t.Revenue = t.Revenue.Add(r.Revenue)
		t.Volume = t.Volume.Add(r.Volume)
		t.Orders += r.Orders
	}
	return t
}

func build(current, previous store.PeriodTotals) Comparison {
	return Comparison{
		Current:  Metrics{Revenue: current.Revenue, Volume: current.Volume, Orders: current.Orders},
		Previous: Metrics{Revenue: previous.Revenue, Volume: previous.Volume, Orders: previous.Orders},
		Changes: Changes{
			RevenuePct: PercentChange(current.Revenue, previous.Revenue),
			VolumePct:  PercentChange(current.Volume, previous.Volume),
			OrdersPct:  PercentChange(decimal.NewFromInt(current.Orders), decimal.NewFromInt(previous.Orders)),
		},
	}
}

// PercentChange is (current - previous) / previous * 100 rounded to two
// places, or 0 when previous is 0.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}

func cacheKey(companyID, customerID uuid.UUID, primary, comparison Range) string {
	const layout = "2006-01-02"
	return fmt.Sprintf("analytics:comparison:%s:%s:%s:%s:%s:%s",
		companyID, customerID,
		primary.From.Format(layout), primary.To.Format(layout),
		comparison.From.Format(layout), comparison.To.Format(layout),
	)
}

func (a *Aggregator) fromCache(ctx context.Context, key string) (Comparison, bool) {
	if a.cache == nil {
		return Comparison{}, false
	}
	raw, found, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.WarnContext(ctx, "analytics_cache_get_failed", "key", key, "error", err)
		return Comparison{}, false
	}
	if !found {
		return Comparison{}, false
	}
	var c Comparison
	if err := json.Unmarshal(raw, &c); err != nil {
		a.logger.WarnContext(ctx, "analytics_cache_decode_failed", "key", key, "error", err)
		return Comparison{}, false
	}
	return c, true
}

func (a *Aggregator) toCache(ctx context.Context, key string, c Comparison) {
	if a.cache == nil {
		return
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.ttl); err != nil {
		a.logger.WarnContext(ctx, "analytics_cache_set_failed", "key", key, "error", err)
	}
}
