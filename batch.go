package hintdb

import "fmt"

// batches partitions keys into ordered chunks of at most limit entries.
// Every key lands in exactly one chunk and input order is preserved, so
// the split is deterministic for a fixed input ordering. An empty input
// yields no chunks. A non-positive limit is a programming error.
func batches[T any](keys []T, limit int) [][]T {
	if limit <= 0 {
		panic(fmt.Sprintf("batches: limit must be positive, got %d", limit))
	}
	if len(keys) == 0 {
		return nil
	}

	out := make([][]T, 0, (len(keys)+limit-1)/limit)
	for start := 0; start < len(keys); start += limit {
		end := min(start+limit, len(keys))
		out = append(out, keys[start:end])
	}
	return out
}
