package shared

import (
	"net/http"
	"strconv"
)

const totalCountHeader = "X-Total-Count"

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit and offset from the query string. Malformed or
// out-of-range values fall back to defaultLimit and zero; a positive maxLimit
// caps the limit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	query := r.URL.Query()
	page := Pagination{
		Limit:  queryInt(query.Get("limit"), defaultLimit, 1),
		Offset: queryInt(query.Get("offset"), 0, 0),
	}
	if maxLimit > 0 {
		page.Limit = min(page.Limit, maxLimit)
	}
	return page
}

// SetTotalCount exposes the unpaged result size to list clients.
func SetTotalCount(w http.ResponseWriter, total int) {
	w.Header().Set(totalCountHeader, strconv.Itoa(total))
}

func queryInt(raw string, fallback, floor int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < floor {
		return fallback
	}
	return v
}
