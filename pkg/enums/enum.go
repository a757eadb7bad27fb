// Package enums holds the string enumerations persisted in Postgres and
// exchanged over the API. Values are case sensitive on both paths.
package enums

import (
	"fmt"
	"slices"
)

func parse[T ~string](value string, valid []T, kind string) (T, error) {
	if i := slices.Index(valid, T(value)); i >= 0 {
		return valid[i], nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
