package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"slices"
	"strings"

	"github.com/lib/pq"
)

// StringArray maps a Postgres text[] column through pq.StringArray. The
// quoted literal pq writes ({"a","b"}) is stored verbatim in SQLite text
// columns, so the same value round-trips in tests.
type StringArray []string

func (a *StringArray) Scan(src any) error {
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return err
	}
	if raw == nil {
		raw = pq.StringArray{}
	}
	*a = StringArray(raw)
	return nil
}

// Value writes an empty literal for nil; the columns are NOT NULL.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	return pq.StringArray(a).Value()
}

// MarshalJSON renders nil as an empty list.
func (a StringArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}

func (a StringArray) Contains(value string) bool {
	return slices.Contains(a, value)
}

// QuoteElement renders one element the way pq.StringArray encodes it.
func QuoteElement(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// ContainsClause builds a predicate matching rows whose array column holds
// value as one element. Postgres compares against the text[] directly; SQLite
// stores the literal as text, so the quoted element is searched instead.
func ContainsClause(dialect, column, value string) (string, any) {
	if dialect == "postgres" {
		return "? = ANY(" + column + ")", value
	}
	return "instr(" + column + ", ?) > 0", QuoteElement(value)
}
