package transport

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"shop-catalog/internal/config"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// queryParams parses typed query parameters and collects every problem so
// the client gets them all at once
type queryParams struct {
	values url.Values
	errs   []middleware.ValidationError
}

func newQueryParams(r *http.Request) *queryParams {
	return &queryParams{values: r.URL.Query()}
}

func (q *queryParams) fail(field, message string) {
	q.errs = append(q.errs, middleware.ValidationError{Field: field, Message: message})
}

// String returns nil when the parameter is absent. A present but empty
// parameter is returned as an empty string.
func (q *queryParams) String(name string) *string {
	if _, ok := q.values[name]; !ok {
		return nil
	}
	v := q.values.Get(name)
	return &v
}

func (q *queryParams) Bool(name string) *bool {
	raw := q.values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name, "Value must be true or false")
		return nil
	}
	return &v
}

func (q *queryParams) Date(name string) *domain.Date {
	raw := q.values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := domain.ParseDate(raw)
	if err != nil {
		q.fail(name, "Value must be a date formatted as YYYY-MM-DD")
		return nil
	}
	return &v
}

func (q *queryParams) Int64(name string) *int64 {
	raw := q.values.Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.fail(name, "Value must be an integer")
		return nil
	}
	return &v
}

func (q *queryParams) int(name string, fallback int) int {
	raw := q.values.Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name, "Value must be an integer")
		return fallback
	}
	return v
}

// Page reads the zero-based page index and the page size. Sizes above the
// configured maximum are clamped. The row offset page*size must fit in an
// int, so larger page indexes are rejected.
func (q *queryParams) Page(cfg config.PaginationConfig) domain.PageRequest {
	page := q.int("page", 0)
	size := q.int("size", cfg.DefaultSize)

	if page < 0 {
		q.fail("page", "Value must be greater than or equal to 0")
		page = 0
	}
	if size < 1 {
		q.fail("size", "Value must be greater than or equal to 1")
		size = cfg.DefaultSize
	}
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		size = cfg.MaxSize
	}
	if page > math.MaxInt/size {
		q.fail("page", "Value is too large for the page size")
		page = 0
	}

	return domain.PageRequest{Page: page, Size: size}
}

func (q *queryParams) Errors() []middleware.ValidationError {
	return q.errs
}

// pathID parses the {id} route parameter
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func respondInvalidID(w http.ResponseWriter) {
	middleware.RespondWithValidationErrors(w, []middleware.ValidationError{
		{Field: "id", Message: "Value must be a positive integer"},
	})
}
