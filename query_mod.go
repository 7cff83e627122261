package folio

import "github.com/Masterminds/squirrel"

type (
	Q = squirrel.SelectBuilder
	// QueryMod modifies a SELECT under construction. The table argument carries
	// the alias the selected columns should be qualified with.
	QueryMod func(q Q, table string) Q
)

// Col selects one or more columns qualified by the current table alias.
func Col(names ...string) QueryMod {
	return func(q Q, table string) Q {
		for _, name := range names {
			q = q.Column(TableCol(table, name))
		}
		return q
	}
}

// Where adds a predicate. The table alias is not applied; qualify columns in
// the predicate yourself when the query joins other tables.
func Where(pred any, args ...any) QueryMod {
	return func(q Q, table string) Q { return q.Where(pred, args...) }
}

func TableCol(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

func applyMods(q Q, table string, mods []QueryMod) Q {
	for _, mod := range mods {
		q = mod(q, table)
	}

	return q
}
