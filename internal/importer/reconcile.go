package importer

import (
	"context"
	"fmt"
)

// Result is the terminal state of one reconciled row.
type Result string

const (
	Inserted Result = "inserted"
	Updated  Result = "updated"
	Skipped  Result = "skipped"
	Failed   Result = "failed"
)

// Outcome is exactly one per input row. Warnings may accompany any Result;
// a Skipped outcome always carries its reason among them.
type Outcome[T any] struct {
	Index    int
	Key      string
	Result   Result
	Entity   T
	Reason   string
	Err      error
	Warnings []string
}

// plan is what a strategy decided for a row before anything is written.
type plan[T any] struct {
	draft    T
	existing *T
	skip     string
	warnings []string
}

// strategy carries the entity-specific parts of reconciliation. key must be
// cheap and side-effect free: the batch runner calls it to route rows.
type strategy[T any] interface {
	key(row Row) string
	plan(ctx context.Context, row Row) (plan[T], error)
	insert(ctx context.Context, draft T) (T, error)
	update(ctx context.Context, existing, draft T) (T, error)
}

// reconcileByKey runs match, validate and write for one row. Every fault,
// including a panic in the store, ends as a Failed outcome for this row only.
func reconcileByKey[T any](ctx context.Context, s strategy[T], row Row) (out Outcome[T]) {
	out = Outcome[T]{Index: row.Index, Key: s.key(row)}
	defer func() {
		if rec := recover(); rec != nil {
			out.Result = Failed
			out.Err = fmt.Errorf("panic: %v", rec)
			out.Reason = out.Err.Error()
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(out, err)
	}

	p, err := s.plan(ctx, row)
	if err != nil {
		return failed(out, err)
	}
	out.Warnings = p.warnings
	if p.skip != "" {
		out.Result = Skipped
		out.Reason = p.skip
		out.Warnings = append(out.Warnings, p.skip)
		return out
	}

	if p.existing != nil {
		entity, err := s.update(ctx, *p.existing, p.draft)
		if err != nil {
			return failed(out, err)
		}
		out.Result = Updated
		out.Entity = entity
		return out
	}

	entity, err := s.insert(ctx, p.draft)
	if err != nil {
		return failed(out, err)
	}
	out.Result = Inserted
	out.Entity = entity
	return out
}

func failed[T any](out Outcome[T], err error) Outcome[T] {
	out.Result = Failed
	out.Err = err
	out.Reason = err.Error()
	return out
}
