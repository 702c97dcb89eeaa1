package importer

import (
	"github.com/google/uuid"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

type Counts struct {
	Inserted int
	Updated  int
	Skipped  int
	Failed   int
}

// Succeeded counts rows that were written.
func (c Counts) Succeeded() int {
	return c.Inserted + c.Updated
}

// Report covers every input row with exactly one outcome, in input order.
type Report[T any] struct {
	Outcomes       []Outcome[T]
	Counts         Counts
	Warnings       []string
	TenantsCreated []uuid.UUID
}

func newReport[T any](outcomes []Outcome[T], tenantsCreated []uuid.UUID) Report[T] {
	r := Report[T]{
		Outcomes:       outcomes,
		Warnings:       make([]string, 0),
		TenantsCreated: tenantsCreated,
	}
	if r.TenantsCreated == nil {
		r.TenantsCreated = make([]uuid.UUID, 0)
	}
	for _, o := range outcomes {
		switch o.Result {
		case Inserted:
			r.Counts.Inserted++
		case Updated:
			r.Counts.Updated++
		case Skipped:
			r.Counts.Skipped++
		case Failed:
			r.Counts.Failed++
		}
		r.Warnings = append(r.Warnings, o.Warnings...)
	}
	return r
}

// Written returns the persisted entities in input order.
func (r Report[T]) Written() []T {
	out := make([]T, 0, r.Counts.Succeeded())
	for _, o := range r.Outcomes {
		if o.Result == Inserted || o.Result == Updated {
			out = append(out, o.Entity)
		}
	}
	return out
}

func (r Report[T]) Failures() []Outcome[T] {
	out := make([]Outcome[T], 0, r.Counts.Failed)
	for _, o := range r.Outcomes {
		if o.Result == Failed {
			out = append(out, o)
		}
	}
	return out
}

// PriceReport adds the price list every item of the batch was written to.
type PriceReport struct {
	Report[store.PriceListItem]
	PriceListID uuid.UUID
}
