package shared

import "math"

const (
	// DefaultPageSize applies when a list request omits pageSize.
	DefaultPageSize = 20
	// MaxPageSize caps oversized list requests.
	MaxPageSize = 200
)

// Pagination identifies one page of a list.
type Pagination struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// Normalize fills defaults and clamps the page size.
func (p Pagination) Normalize() Pagination {
	if p.PageNumber <= 0 {
		p.PageNumber = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the zero-based index of the first row of the page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.PageNumber - 1) * p.PageSize
}

// Meta is the list metadata shared by every list response.
type Meta struct {
	Total      int `json:"total"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewMeta computes list metadata.
func NewMeta(p Pagination, total int) Meta {
	p = p.Normalize()
	totalPages := int(math.Ceil(float64(total) / float64(p.PageSize)))
	return Meta{Total: total, PageNumber: p.PageNumber, PageSize: p.PageSize, TotalPages: totalPages}
}

// Page is the {data, meta} envelope of list endpoints.
type Page[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// Paginate slices an in-memory result set.
func Paginate[T any](items []T, p Pagination) Page[T] {
	p = p.Normalize()
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	data := make([]T, end-start)
	copy(data, items[start:end])
	return Page[T]{Data: data, Meta: NewMeta(p, len(items))}
}
