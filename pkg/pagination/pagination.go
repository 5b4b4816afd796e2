package pagination

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the standard page size when pageSize is not provided.
	DefaultPageSize = 12
	// MaxPageSize caps how many rows any page can request.
	MaxPageSize = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page     int
	PageSize int
}

// Meta is returned alongside paginated items.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Normalize clamps page to >= 1 and pageSize to 1..MaxPageSize, defaulting blanks.
func Normalize(p Params) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize == 0:
		p.PageSize = DefaultPageSize
	case p.PageSize < 1:
		p.PageSize = 1
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.PageSize
}

// Limit returns the normalized page size.
func (p Params) Limit() int {
	return Normalize(p).PageSize
}

// NewMeta builds response metadata for total rows.
func NewMeta(p Params, total int64) Meta {
	n := Normalize(p)
	pages := int((total + int64(n.PageSize) - 1) / int64(n.PageSize))
	return Meta{Page: n.Page, PageSize: n.PageSize, Total: total, TotalPages: pages}
}

// ParseParams reads page/pageSize query values. Blank values use defaults.
func ParseParams(page, pageSize string) (Params, error) {
	var p Params
	if v := strings.TrimSpace(page); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("invalid page %q", page)
		}
		p.Page = n
	}
	if v := strings.TrimSpace(pageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Params{}, fmt.Errorf("invalid pageSize %q", pageSize)
		}
		p.PageSize = n
	}
	return Normalize(p), nil
}
