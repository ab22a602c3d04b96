package api

import (
	"net/http"
	"strconv"
	"strings"

	"tourguide/internal/models"

	"github.com/gin-gonic/gin"
)

type listResponse struct {
	Count   int `json:"count"`
	Results any `json:"results"`
}

func list[T any](items []T) listResponse {
	if items == nil {
		items = []T{}
	}
	return listResponse{Count: len(items), Results: items}
}

// paramID parses a positive path parameter. It writes a 404 and reports false otherwise.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeStatus(c, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// queryParams parses optional query parameters and remembers the first bad one.
type queryParams struct {
	c     *gin.Context
	field string
	err   error
}

func newQuery(c *gin.Context) *queryParams {
	return &queryParams{c: c}
}

func (q *queryParams) raw(name string) string {
	return strings.TrimSpace(q.c.Query(name))
}

func (q *queryParams) fail(name string, err error) {
	if q.err == nil {
		q.field, q.err = name, err
	}
}

func (q *queryParams) int(name string, def int) int {
	s := q.raw(name)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		q.fail(name, err)
		return def
	}
	return v
}

func (q *queryParams) int64(name string) int64 {
	s := q.raw(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		q.fail(name, err)
		return 0
	}
	return v
}

func (q *queryParams) float(name string) float64 {
	s := q.raw(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.fail(name, err)
		return 0
	}
	return v
}

func (q *queryParams) date(name string) *models.Date {
	s := q.raw(name)
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		q.fail(name, err)
		return nil
	}
	return &d
}

// page returns the limit and offset query parameters. Services apply the bounds.
func (q *queryParams) page() (int, int) {
	return q.int("limit", 0), q.int("offset", 0)
}

// ok writes a 400 for the first malformed parameter.
func (q *queryParams) ok() bool {
	if q.err != nil {
		badRequest(q.c, q.field, q.err)
		return false
	}
	return true
}

// bindJSON decodes the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		badRequest(c, "body", err)
		return false
	}
	return true
}
