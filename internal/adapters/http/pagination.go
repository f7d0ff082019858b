package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 500
)

// PaginatedResponse is the envelope of every list endpoint.
type PaginatedResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes one offset/limit window over Total items.
type Pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// ParsePagination reads offset and limit from the query string. Negative
// offsets clamp to 0; a missing or out-of-range limit falls back to the
// default.
func ParsePagination(c *fiber.Ctx) Pagination {
	p := Pagination{Offset: c.QueryInt("offset", 0), Limit: c.QueryInt("limit", defaultPageLimit)}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > maxPageLimit {
		p.Limit = defaultPageLimit
	}
	return p
}

// WithTotal fills in the totals once the window has been served.
func (p Pagination) WithTotal(total int) Pagination {
	p.Total = total
	p.HasMore = p.Offset+p.Limit < total
	return p
}

// SetLinkHeaders writes an RFC 8288 Link header with first, prev, next
// and last pages of p, relative to the current path.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	page := func(offset int, rel string) string {
		return fmt.Sprintf(`<%s?offset=%d&limit=%d>; rel="%s"`, c.Path(), offset, p.Limit, rel)
	}

	links := []string{page(0, "first")}
	if p.Offset > 0 {
		links = append(links, page(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.HasMore {
		links = append(links, page(p.Offset+p.Limit, "next"))
	}
	links = append(links, page(max(p.Total-p.Limit, 0), "last"))

	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}
