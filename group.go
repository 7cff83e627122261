package folio

import (
	"context"
	"iter"
	"log/slog"
)

// Group reconstructs parent entities from a flat sequence of joined rows.
//
// Each row carries one parent projection plus the projection of a single child
// pairing (a book–author pair, an order–customer–book triple). key extracts
// the parent's natural key, materialize builds the parent from the first row
// that mentions it, and fold merges a row's child fields into the parent. fold
// runs for every row, the first one included; it is expected to skip rows
// whose child side is null (outer-join rows contribute only the parent).
//
// Every distinct key yields exactly one parent, in first-seen order. Children
// are appended in row order and never deduplicated: a repeated identical row
// yields a repeated child entry.
func Group[R any, K comparable, P any](
	rows iter.Seq[R],
	key func(R) K,
	materialize func(R) P,
	fold func(*P, R),
) []P {
	index := make(map[K]int)

	var parents []P
	for row := range rows {
		k := key(row)
		ix, seen := index[k]
		if !seen {
			ix = len(parents)
			index[k] = ix
			parents = append(parents, materialize(row))
		}
		fold(&parents[ix], row)
	}

	return parents
}

// CollectGrouped executes a joined SELECT and reconstructs one parent per
// distinct key, streaming rows through Group without collecting them first.
// scan must list the parent columns before the child columns, matching the
// column order of the query; no alignment check is performed.
func CollectGrouped[R any, K comparable, P any](
	ctx context.Context,
	q Q,
	scan Scan[R],
	key func(R) K,
	materialize func(R) P,
	fold func(*P, R),
) ([]P, error) {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("CollectGrouped: failed to close rows", "error", err.Error())
		}
	}()

	var scanErr error
	seq := func(yield func(R) bool) {
		for rows.Next() {
			var r R
			pointers, action := scan(&r)
			if err := rows.Scan(pointers...); err != nil {
				scanErr = err
				return
			}
			if action != nil {
				action()
			}
			if !yield(r) {
				return
			}
		}
	}

	parents := Group(seq, key, materialize, fold)
	if scanErr != nil {
		return nil, scanErr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return parents, nil
}
