package api

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/types"
)

// Paginator reads limit/offset query parameters and builds page envelopes
// with absolute next/previous links.
type Paginator struct {
	BaseURL      string
	DefaultLimit int
	MaxLimit     int
}

func (p Paginator) params(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = p.DefaultLimit
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}

	offset, err = strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (p Paginator) link(c *gin.Context, limit, offset int) *string {
	q := c.Request.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u := url.URL{Path: c.Request.URL.Path, RawQuery: q.Encode()}
	s := p.BaseURL + u.String()
	return &s
}

func newPage[T any](c *gin.Context, p Paginator, results []T, count int64, limit, offset int) types.Page[T] {
	if results == nil {
		results = []T{}
	}
	page := types.Page[T]{Count: count, Results: results}

	if int64(offset+limit) < count {
		page.Next = p.link(c, limit, offset+limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		page.Previous = p.link(c, limit, prev)
	}
	return page
}
