package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/vaa-bridge/presenter/http/middleware"
	"github.com/omni/vaa-bridge/presenter/http/render"
)

func TestRecoverer(t *testing.T) {
	t.Parallel()

	h := middleware.Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var res render.ErrorResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "internal", res.Error)
	require.Equal(t, http.StatusText(http.StatusInternalServerError), res.Message)
}

func TestPagination(t *testing.T) {
	t.Parallel()

	var got *middleware.Pagination
	h := middleware.GetPaginationMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = middleware.GetPagination(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, &middleware.Pagination{Limit: middleware.DefaultPageSize}, got)

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?from=7&limit=100", nil))
	require.Equal(t, &middleware.Pagination{From: 7, Limit: 100}, got)

	for _, query := range []string{"from=-1", "limit=0", "limit=101", "limit=x"} {
		got = nil
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?"+query, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
		require.Nil(t, got, query)
	}
}
