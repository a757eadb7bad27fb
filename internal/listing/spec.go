// Package listing implements the shared paginated list contract: page/limit
// pagination, free-text search over a configurable set of fields, equality
// filters and a canonical order, compiled per entity from a typed Spec.
package listing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// FieldKind selects how a search field is matched.
type FieldKind int

const (
	// Text fields match case-insensitive substrings.
	Text FieldKind = iota
	// Array fields match when one element equals the search string.
	Array
	// Related fields match a text column on a row referenced by a foreign key.
	Related
)

// Field describes one searchable attribute.
type Field struct {
	Kind   FieldKind
	Column string
	// Related fields only.
	Table      string
	ForeignKey string
}

// TextField is a substring-matched column on the listed table.
func TextField(column string) Field {
	return Field{Kind: Text, Column: column}
}

// ArrayField is a text[] column on the listed table.
func ArrayField(column string) Field {
	return Field{Kind: Array, Column: column}
}

// RelatedField matches table.column through foreignKey on the listed table.
func RelatedField(table, foreignKey, column string) Field {
	return Field{Kind: Related, Table: table, ForeignKey: foreignKey, Column: column}
}

// Filter maps one equality query parameter onto a column.
type Filter struct {
	Column string
	// Parse validates and converts the raw query value. Nil keeps the string.
	Parse func(raw string) (any, error)
}

// Spec is the list definition of one entity.
type Spec struct {
	Table               string
	Fields              map[string]Field
	DefaultSearchFields []string
	Filters             map[string]Filter
	// FilterOrder fixes the order filters are read from the query.
	FilterOrder []string
	Order       string
}

// Eq is a plain string equality filter.
func Eq(column string) Filter {
	return Filter{Column: column}
}

// UUIDEq parses the value as a UUID before comparing.
func UUIDEq(column string) Filter {
	return Filter{Column: column, Parse: func(raw string) (any, error) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid")
		}
		return id, nil
	}}
}

// EnumEq validates the value with parse, typically an enums.ParseX function.
func EnumEq[T ~string](column string, parse func(string) (T, error)) Filter {
	return Filter{Column: column, Parse: func(raw string) (any, error) {
		v, err := parse(raw)
		if err != nil {
			return nil, err
		}
		return string(v), nil
	}}
}

// order is the canonical ordering with the primary key as a tiebreak, so rows
// sharing a date or timestamp keep a stable position across pages.
func (s Spec) order() string {
	base := s.Order
	if base == "" {
		base = s.Table + ".created_at DESC"
	}
	return base + ", " + s.Table + ".id DESC"
}

func (s Spec) filterNames() []string {
	if len(s.FilterOrder) > 0 {
		return s.FilterOrder
	}
	names := make([]string, 0, len(s.Filters))
	for name := range s.Filters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s Spec) qualify(column string) string {
	if strings.Contains(column, ".") {
		return column
	}
	return s.Table + "." + column
}
