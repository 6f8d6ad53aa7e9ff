package dto

import (
	"net/url"
	"strconv"

	"github.com/hugh/go-crm/internal/api/validation"
	"github.com/hugh/go-crm/internal/store"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

const maxSearchLength = 100

// ListParams reads the shared list query: search, page, limit and sort.
// Bad numbers fall back to the defaults applied by the store.
func ListParams(q url.Values) store.ListParams {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return store.ListParams{
		Search: validation.TruncateString(q.Get("search"), maxSearchLength),
		Page:   page,
		Limit:  limit,
		Sort:   q.Get("sort"),
	}
}
