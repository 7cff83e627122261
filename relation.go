package folio

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/samber/lo"
)

type (
	// ResolveFunc loads the children for a batch of parents and binds them in place.
	ResolveFunc[M any] func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error
	// Binder distributes loaded children over their parents.
	Binder[M, N any] func(parents []M, children []N)
	// QueryModifier tweaks the parent query, used to force-select the fields a
	// relation needs to bind.
	QueryModifier[M any] func(query Query[M]) Query[M]
)

type Relation[M any] struct {
	Resolve ResolveFunc[M]
	Check   func(field string) error
	Depends QueryModifier[M]
}

// HasMany resolves a one-to-many relation with a single batched query over all
// parents: match decides whether a child belongs to a parent, assign stores the
// matched children, wherer restricts the child query to the parents at hand,
// and depends lists the parent and child fields binding needs.
func HasMany[M, N any](
	child *Schema[N],
	match func(M, N) bool,
	assign func(*M, []N),
	wherer func(parents []M) QueryMod,
	depends []string,
) Relation[M] {
	return NewRelation(child, bindMany(match, assign), wherer, depends)
}

// HasOne resolves a to-one relation; the first matching child wins.
func HasOne[M, N any](
	child *Schema[N],
	match func(M, N) bool,
	assign func(*M, N),
	wherer func(parents []M) QueryMod,
	depends []string,
) Relation[M] {
	return NewRelation(child, bindOne(match, assign), wherer, depends)
}

func NewRelation[M, N any](
	child *Schema[N],
	binder Binder[M, N],
	wherer func(parents []M) QueryMod,
	depends []string,
) Relation[M] {
	return Relation[M]{
		Check: child.Check,
		Resolve: func(ctx context.Context, db squirrel.BaseRunner, parents []M, fields []string) error {
			children, err := child.Query(fields...).
				Modify(wherer(parents)).
				Collect(ctx, db)
			if err != nil {
				return err
			}

			binder(parents, children)

			return nil
		},
		Depends: func(query Query[M]) Query[M] { return query.Select(depends...) },
	}
}

func bindMany[M, N any](
	match func(M, N) bool,
	assign func(*M, []N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]

			collection := lo.Filter(children, func(child N, _ int) bool {
				return match(*parent, child)
			})

			assign(parent, collection)
		}
	}
}

func bindOne[M, N any](
	match func(M, N) bool,
	assign func(*M, N),
) Binder[M, N] {
	return func(parents []M, children []N) {
		for ix := range parents {
			parent := &parents[ix]

			for _, child := range children {
				if match(*parent, child) {
					assign(parent, child)
					break
				}
			}
		}
	}
}

// WhereIn restricts a child query to the ids of the given parents.
func WhereIn[M any, K any](col string, id func(m M) K) func(parents []M) QueryMod {
	return func(parents []M) QueryMod {
		return func(q Q, table string) Q {
			return q.Where(squirrel.Eq{
				TableCol(table, col): lo.Map(parents, func(parent M, _ int) K { return id(parent) }),
			})
		}
	}
}

func DependsOn(fields ...string) []string {
	return fields
}
