package importer

import (
	"context"
	"hash/fnv"

	"golang.org/x/sync/errgroup"
)

// runBatch reconciles every row and returns outcomes in input order.
//
// With more than one worker, rows are split into lanes by natural key. A key
// always lands in the same lane and a lane is processed in input order, so
// the read and the write for one key are never reordered and duplicate keys
// resolve last-write-wins.
//
// A row whose key can alias another key (see sequencer) is a barrier: rows
// before it finish first, it runs alone, and later rows start after it.
func runBatch[T any](ctx context.Context, workers int, rows []Row, s strategy[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(rows))
	if workers <= 1 || len(rows) < 2 {
		for i, row := range rows {
			outcomes[i] = reconcileByKey(ctx, s, row)
		}
		return outcomes
	}

	seq, _ := s.(sequencer)
	start := 0
	for i, row := range rows {
		if seq == nil || !seq.sequential(row) {
			continue
		}
		runLanes(ctx, workers, rows, start, i, s, outcomes)
		outcomes[i] = reconcileByKey(ctx, s, row)
		start = i + 1
	}
	runLanes(ctx, workers, rows, start, len(rows), s, outcomes)
	return outcomes
}

// sequencer is implemented by strategies where two different routing keys
// may name the same stored entity.
type sequencer interface {
	sequential(row Row) bool
}

// runLanes reconciles rows[from:to] in parallel lanes.
func runLanes[T any](ctx context.Context, workers int, rows []Row, from, to int, s strategy[T], outcomes []Outcome[T]) {
	n := to - from
	if n <= 0 {
		return
	}
	if workers > n {
		workers = n
	}

	lanes := make([][]int, workers)
	for i := from; i < to; i++ {
		lane := laneFor(s.key(rows[i]), i, workers)
		lanes[lane] = append(lanes[lane], i)
	}

	var g errgroup.Group
	for _, lane := range lanes {
		if len(lane) == 0 {
			continue
		}
		g.Go(func() error {
			for _, i := range lane {
				outcomes[i] = reconcileByKey(ctx, s, rows[i])
			}
			return nil
		})
	}
	_ = g.Wait()
}

// laneFor hashes the key; rows without a key cannot collide with each other
// and are spread by position instead.
func laneFor(key string, position, lanes int) int {
	if key == "" {
		return position % lanes
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(lanes))
}
