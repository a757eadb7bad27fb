package listing

import (
	"context"
	"strings"

	dbtypes "github.com/angelmondragon/tms-backend/pkg/db/types"
	"github.com/angelmondragon/tms-backend/pkg/pagination"
	"gorm.io/gorm"
)

const likeEscape = `\`

// Page is the list envelope returned to clients.
type Page[T any] struct {
	Data     []T      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// Scope applies the search and filter predicates to a query rooted at
// s.Table. Ordering and pagination are left to the caller.
func (s Spec) Scope(conn *gorm.DB, params Params) *gorm.DB {
	query := conn
	if params.Search != "" {
		sql, args := s.searchPredicate(conn.Dialector.Name(), params.Search, params.SearchFields)
		query = query.Where(sql, args...)
	}
	for _, f := range params.Filters {
		filter, ok := s.Filters[f.Name]
		if !ok {
			query = query.Where("1 = 0")
			continue
		}
		query = query.Where(s.qualify(filter.Column)+" = ?", f.Value)
	}
	return query
}

// Find counts and loads one page of T. prepare can add preloads; it runs
// only for the data query.
func Find[T any](ctx context.Context, conn *gorm.DB, s Spec, params Params, prepare func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	params.Params = params.Params.Normalize()

	var total int64
	var model T
	if err := s.Scope(conn.WithContext(ctx).Model(&model), params).Count(&total).Error; err != nil {
		return nil, err
	}

	rows := make([]T, 0)
	query := s.Scope(conn.WithContext(ctx).Model(&model), params)
	if prepare != nil {
		query = prepare(query)
	}
	if err := query.
		Order(s.order()).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return &Page[T]{
		Data:     rows,
		Metadata: s.metadata(params, total),
	}, nil
}

func (s Spec) metadata(params Params, total int64) Metadata {
	meta := Metadata{
		TotalCount:  total,
		CurrentPage: params.Page,
		TotalPages:  pagination.TotalPages(total, params.Limit),
		Limit:       params.Limit,
	}
	meta.Search = params.Search
	meta.SearchFields = params.SearchFields
	if len(params.Filters) > 0 {
		meta.Filters = make(map[string]string, len(params.Filters))
		for _, f := range params.Filters {
			meta.Filters[f.Name] = f.Raw
		}
	}
	return meta
}

func (s Spec) searchPredicate(dialect, search string, names []string) (string, []any) {
	if len(names) == 0 {
		return "1 = 0", nil
	}
	pattern := "%" + escapeLike(strings.ToLower(search)) + "%"

	clauses := make([]string, 0, len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		field, ok := s.Fields[name]
		if !ok {
			clauses = append(clauses, "1 = 0")
			continue
		}
		switch field.Kind {
		case Text:
			clauses = append(clauses, "LOWER("+s.qualify(field.Column)+`) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		case Array:
			sql, arg := dbtypes.ContainsClause(dialect, s.qualify(field.Column), search)
			clauses = append(clauses, sql)
			args = append(args, arg)
		case Related:
			clauses = append(clauses, "EXISTS (SELECT 1 FROM "+field.Table+" WHERE "+
				field.Table+".id = "+s.qualify(field.ForeignKey)+
				" AND LOWER("+field.Table+"."+field.Column+`) LIKE ? ESCAPE '\')`)
			args = append(args, pattern)
		default:
			clauses = append(clauses, "1 = 0")
		}
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func escapeLike(value string) string {
	value = strings.ReplaceAll(value, likeEscape, likeEscape+likeEscape)
	value = strings.ReplaceAll(value, "%", likeEscape+"%")
	return strings.ReplaceAll(value, "_", likeEscape+"_")
}
