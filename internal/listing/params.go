package listing

import (
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/pagination"
)

// FilterValue is one applied equality filter.
type FilterValue struct {
	Name  string
	Raw   string
	Value any
}

// Params is a parsed list request.
type Params struct {
	pagination.Params
	Search       string
	SearchFields []string
	Filters      []FilterValue
}

// ParseQuery reads page, limit, search, searchFields and the declared filters
// from a query string. Malformed page/limit values fall back to defaults; a
// filter value its parser rejects is a validation error.
func (s Spec) ParseQuery(values url.Values) (Params, error) {
	params := Params{
		Params: pagination.Parse(values.Get("page"), values.Get("limit")),
		Search: strings.TrimSpace(values.Get("search")),
	}

	if raw := values.Get("searchFields"); strings.TrimSpace(raw) != "" {
		params.SearchFields = splitFields(raw)
	} else {
		params.SearchFields = append([]string(nil), s.DefaultSearchFields...)
	}

	for _, name := range s.filterNames() {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		filter := s.Filters[name]
		var value any = raw
		if filter.Parse != nil {
			parsed, err := filter.Parse(raw)
			if err != nil {
				return Params{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid filter value").
					WithDetails(map[string]any{"field": name, "value": raw})
			}
			value = parsed
		}
		params.Filters = append(params.Filters, FilterValue{Name: name, Raw: raw, Value: value})
	}
	return params, nil
}

func splitFields(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
