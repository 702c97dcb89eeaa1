package importer

import (
	"context"
	"errors"

	"github.com/horeca-backoffice/apps/api/internal/store"
)

// match looks an entity up by its natural key. Absence is reported through
// found=false, never as an error; only real data-access faults are returned.
// An empty key is unmatchable and does not reach the store.
func match[T any](ctx context.Context, key string, find func(context.Context, string) (T, error)) (T, bool, error) {
	var zero T
	if key == "" {
		return zero, false, nil
	}
	entity, err := find(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return entity, true, nil
}
