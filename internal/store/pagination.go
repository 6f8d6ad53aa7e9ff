package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

const maxLimit = 100

// ListParams is the shared list contract: free-text search, 1-based page,
// page size and a sort key understood by the individual list.
type ListParams struct {
	Search string
	Page   int
	Limit  int
	Sort   string
}

func (p ListParams) normalize(defaultLimit int) ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	p.Search = strings.TrimSpace(p.Search)
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a list. PrevPage and NextPage are nil at the boundaries.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Returned   int   `json:"returned"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	PrevPage   *int  `json:"prev_page"`
	NextPage   *int  `json:"next_page"`
}

// NewPage computes the page metadata for items taken at page/limit out of total.
func NewPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	p := Page[T]{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Returned:   len(items),
		Total:      total,
		TotalPages: totalPages,
	}
	if page > 1 {
		prev := page - 1
		p.PrevPage = &prev
	}
	if page < totalPages {
		next := page + 1
		p.NextPage = &next
	}
	return p
}

// sortOrders maps a list's sort keys onto an ORDER BY clause.
type sortOrders map[string]string

func (s sortOrders) resolve(key, fallback string) string {
	if order, ok := s[key]; ok {
		return order
	}
	return fallback
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope matches search case-insensitively as a substring of any of cols.
func searchScope(search string, cols ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if search == "" || len(cols) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		clauses := make([]string, len(cols))
		args := make([]interface{}, len(cols))
		for i, col := range cols {
			clauses[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// paginate counts and fetches with the same scopes so the total always
// describes the filtered set.
func paginate[T any](ctx context.Context, db *gorm.DB, p ListParams, order string, scopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	var model T

	var total int64
	if err := db.WithContext(ctx).Model(&model).Scopes(scopes...).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	var items []T
	if err := db.WithContext(ctx).
		Scopes(scopes...).
		Order(order).
		Offset(p.offset()).
		Limit(p.Limit).
		Find(&items).Error; err != nil {
		return Page[T]{}, err
	}

	return NewPage(items, p.Page, p.Limit, total), nil
}
