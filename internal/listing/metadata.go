package listing

import "encoding/json"

// Metadata describes the page and echoes the applied search and filters so
// clients can re-issue the same query.
type Metadata struct {
	TotalCount   int64
	CurrentPage  int
	TotalPages   int
	Limit        int
	Search       string
	SearchFields []string
	Filters      map[string]string
}

// MarshalJSON flattens filters next to the pagination fields. search and
// filters appear only when supplied; searchFields appears whenever the entity
// resolved any, defaulted or not.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6+len(m.Filters))
	for name, value := range m.Filters {
		out[name] = value
	}
	out["totalCount"] = m.TotalCount
	out["currentPage"] = m.CurrentPage
	out["totalPages"] = m.TotalPages
	out["limit"] = m.Limit
	if m.Search != "" {
		out["search"] = m.Search
	}
	if len(m.SearchFields) > 0 {
		out["searchFields"] = m.SearchFields
	}
	return json.Marshal(out)
}
