package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/omni/vaa-bridge/presenter/http/render"
)

type ctxKey int

const paginationCtxKey ctxKey = iota

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrInvalidPagination = errors.New("invalid pagination parameter")

type Pagination struct {
	From  uint64
	Limit uint64
}

// GetPaginationMiddleware reads the from and limit query parameters of list endpoints.
func GetPaginationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		page := &Pagination{Limit: DefaultPageSize}

		if from := query.Get("from"); from != "" {
			val, err := strconv.ParseUint(from, 10, 64)
			if err != nil {
				render.Error(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("failed to parse from: %w", ErrInvalidPagination))
				return
			}
			page.From = val
		}
		if limit := query.Get("limit"); limit != "" {
			val, err := strconv.ParseUint(limit, 10, 64)
			if err != nil || val == 0 {
				render.Error(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("failed to parse limit: %w", ErrInvalidPagination))
				return
			}
			if val > MaxPageSize {
				render.Error(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("cannot request more than %d items: %w", MaxPageSize, ErrInvalidPagination))
				return
			}
			page.Limit = val
		}

		ctx := context.WithValue(r.Context(), paginationCtxKey, page)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetPagination(ctx context.Context) *Pagination {
	if page, ok := ctx.Value(paginationCtxKey).(*Pagination); ok {
		return page
	}
	return &Pagination{Limit: DefaultPageSize}
}
