package folio

import "fmt"

// Schema describes how a table maps onto T: its selectable fields and the
// relations that can be resolved into it.
type Schema[T any] struct {
	Table string

	fields    map[string]FieldDef[T]
	relations map[string]Relation[T]
	mods      []QueryMod
}

func NewSchema[T any](table string) *Schema[T] {
	return &Schema[T]{
		Table:     table,
		fields:    map[string]FieldDef[T]{},
		relations: map[string]Relation[T]{},
	}
}

func (schema *Schema[T]) Field(name string, mod QueryMod, scan Scan[T]) *Schema[T] {
	schema.fields[name] = FieldOf(mod, scan)

	return schema
}

// Column registers a field whose name equals the column name and maps directly
// onto a struct field.
func (schema *Schema[T]) Column(name string, ptr func(t *T) any) *Schema[T] {
	return schema.Field(name, Col(name), Ptr(ptr))
}

func (schema *Schema[T]) Relation(name string, relation Relation[T]) *Schema[T] {
	schema.relations[name] = relation

	return schema
}

// Modify adds a QueryMod applied to every query built from this schema.
func (schema *Schema[T]) Modify(mod QueryMod) *Schema[T] {
	schema.mods = append(schema.mods, mod)

	return schema
}

// Query starts a query selecting the given fields; no fields selects all.
func (schema *Schema[T]) Query(fields ...string) Query[T] {
	return newQuery(schema, fields...)
}

// Check reports whether a possibly-dotted field name resolves against this
// schema or one of its relations.
func (schema *Schema[T]) Check(field string) error {
	field, rest := splitField(field)

	if field == "" {
		return nil
	}

	if rel, ok := schema.relations[field]; ok {
		return rel.Check(rest)
	}

	if _, ok := schema.fields[field]; ok {
		if rest != "" {
			return fmt.Errorf("%w: %s", ErrNoSuchField, field)
		}
		return nil
	}

	return fmt.Errorf("%w: %s", ErrNoSuchField, field)
}
