package folio

import (
	"context"
	"log/slog"
)

// Collect executes the SELECT and scans every row into a fresh T.
func Collect[T any](ctx context.Context, q Q, scan Scan[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Default().Error("Collect: failed to close rows", "error", err.Error())
		}
	}()

	var collection []T
	for rows.Next() {
		var t T
		pointers, action := scan(&t)
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		if action != nil {
			action()
		}
		collection = append(collection, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collection, nil
}
