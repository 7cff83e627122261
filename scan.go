package folio

type (
	// Ptrs holds the scan destinations one Scan contributes to a row.
	Ptrs []any
	// Scan returns the destinations for scanning a row into t, plus an optional
	// Action invoked after the row has been scanned into them.
	Scan[T any] func(t *T) (Ptrs, Action)
	// Action is a post-scan hook, used when a column needs decoding into the
	// target beyond a direct pointer assignment.
	Action func()

	// FieldDef couples the query modification that selects a column with the
	// Scan that receives its value.
	FieldDef[T any] struct {
		Mod  QueryMod
		Scan Scan[T]
	}
)

// Ptr builds a Scan for a column that maps directly onto a struct field.
func Ptr[T any](ptr func(t *T) any) Scan[T] {
	return func(t *T) (Ptrs, Action) {
		return Ptrs{ptr(t)}, nil
	}
}

// FieldOf pairs a QueryMod with a Scan into a FieldDef.
func FieldOf[T any](mod QueryMod, scan Scan[T]) FieldDef[T] {
	return FieldDef[T]{mod, scan}
}

func mergeScans[T any](scans []Scan[T]) Scan[T] {
	return func(t *T) (Ptrs, Action) {
		var (
			pointers Ptrs
			actions  []Action
		)
		for _, scan := range scans {
			ptrs, action := scan(t)
			pointers = append(pointers, ptrs...)
			if action != nil {
				actions = append(actions, action)
			}
		}

		if len(actions) == 0 {
			return pointers, nil
		}

		return pointers, func() {
			for _, action := range actions {
				action()
			}
		}
	}
}
