package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
)

var (
	// ErrNoSuchField is returned when there is no field or relation with that name.
	ErrNoSuchField = errors.New("field does not exist")
	// ErrNoSuchRelation is returned when selecting a nested field on a relation that does not exist.
	ErrNoSuchRelation = errors.New("relation does not exist")
	// ErrTooManyResults is returned when CollectOne matched more than one row.
	ErrTooManyResults = errors.New("too many results for CollectOne")
)

// Query selects fields and relations from a Schema and collects the result.
// Selection errors accumulate and surface from the finishers.
type Query[T any] struct {
	schema *Schema[T]

	selectedFields    map[string]FieldDef[T]
	selectedRelations map[string]Relation[T]
	relationFields    map[string][]string
	tableAlias        string
	mods              []QueryMod

	errs []error
}

func newQuery[T any](schema *Schema[T], fields ...string) Query[T] {
	query := Query[T]{
		schema:            schema,
		selectedFields:    map[string]FieldDef[T]{},
		selectedRelations: map[string]Relation[T]{},
		relationFields:    map[string][]string{},
		tableAlias:        schema.Table,
	}

	return query.Select(fields...)
}

// Modify adds a QueryMod applied to this query only.
func (query Query[T]) Modify(mod QueryMod) Query[T] {
	query.mods = append(query.mods, mod)

	return query
}

// Select adds fields by name. Dotted names select relation fields and pull the
// relation in with them; no names selects every field.
func (query Query[T]) Select(fieldNames ...string) Query[T] {
	if len(fieldNames) == 0 {
		query.selectAllFields()
		return query
	}

	for _, name := range fieldNames {
		query.resolveSelect(name)
	}

	return query
}

func (query *Query[T]) resolveSelect(name string) {
	field, rest := splitField(name)

	if field == "*" {
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, field))
			return
		}

		query.selectAllFields()
		return
	}

	if rel, ok := query.schema.relations[field]; ok {
		if rest != "" && rest != "*" {
			if err := rel.Check(rest); err != nil {
				query.addError(err)
				return
			}
		}
		query.selectRelation(field, rest)
		return
	}

	if _, ok := query.schema.fields[field]; ok {
		// Fields cannot have nesting
		if rest != "" {
			query.addError(fmt.Errorf("%w: %s", ErrNoSuchRelation, field))
			return
		}
		query.selectField(field)
		return
	}

	query.addError(fmt.Errorf("%w: %s", ErrNoSuchField, field))
}

func (query *Query[T]) selectAllFields() {
	for name := range query.schema.fields {
		query.selectedFields[name] = query.schema.fields[name]
	}
}

func (query *Query[T]) selectField(name string) {
	query.selectedFields[name] = query.schema.fields[name]
}

func (query *Query[T]) selectRelation(relName, relField string) {
	if relField == "" {
		relField = "*"
	}

	query.selectedRelations[relName] = query.schema.relations[relName]
	query.relationFields[relName] = append(query.relationFields[relName], relField)
}

// =================
// Finishers
// =================

func (query Query[T]) Err() error {
	return errors.Join(query.errs...)
}

func (query Query[T]) Collect(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return parents, nil
}

func (query Query[T]) CollectOne(ctx context.Context, db squirrel.BaseRunner) (*T, error) {
	if err := query.Err(); err != nil {
		return nil, err
	}

	parents, err := query.collectBase(ctx, db)
	if err != nil {
		return nil, err
	}

	if len(parents) == 0 {
		return nil, sql.ErrNoRows
	} else if len(parents) > 1 {
		return nil, ErrTooManyResults
	}

	if err := query.resolveRelations(ctx, db, parents); err != nil {
		return nil, err
	}

	return &parents[0], nil
}

func (query Query[T]) collectBase(ctx context.Context, db squirrel.BaseRunner) ([]T, error) {
	q := squirrel.StatementBuilder.RunWith(db).Select().From(query.schema.Table)

	// Schema mods first, then runtime mods
	q = applyMods(q, query.tableAlias, query.schema.mods)
	q = applyMods(q, query.tableAlias, query.mods)

	// Add the fields each selected relation depends on
	for _, rel := range query.selectedRelations {
		query = rel.Depends(query)
	}

	var scans []Scan[T]
	for _, field := range query.selectedFields {
		q = field.Mod(q, query.tableAlias)
		scans = append(scans, field.Scan)
	}

	return Collect(ctx, q, mergeScans(scans))
}

func (query Query[T]) resolveRelations(
	ctx context.Context,
	db squirrel.BaseRunner,
	parents []T,
) error {
	for name, relation := range query.selectedRelations {
		err := relation.Resolve(ctx, db, parents, query.relationFields[name])
		if err != nil {
			return err
		}
	}

	return nil
}

// =================
// Utilities
// =================

func (query *Query[T]) addError(err error) {
	query.errs = append(query.errs, err)
}

func splitField(name string) (string, string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 1 {
		return name, ""
	}
	return parts[0], parts[1]
}
