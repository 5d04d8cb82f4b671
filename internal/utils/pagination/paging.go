package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// HeaderName carries page metadata on list responses.
const HeaderName = "Pagination"

// Params is the requested page. Zero values fall back to the first page
// and the default size.
type Params struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps PageNumber to >= 1 and PageSize to [1, max].
func (p Params) Normalize(def, max int) Params {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = def
	}
	if max > 0 && p.PageSize > max {
		p.PageSize = max
	}
	return p
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// ParseParams reads page number/size from raw query values.
// Non-numeric input is rejected instead of silently defaulted.
func ParseParams(pageNumber, pageSize string) (Params, error) {
	var p Params
	var err error
	if pageNumber != "" {
		if p.PageNumber, err = strconv.Atoi(pageNumber); err != nil {
			return Params{}, fmt.Errorf("invalid pageNumber %q", pageNumber)
		}
	}
	if pageSize != "" {
		if p.PageSize, err = strconv.Atoi(pageSize); err != nil {
			return Params{}, fmt.Errorf("invalid pageSize %q", pageSize)
		}
	}
	return p, nil
}

// PagedList is one page of items plus the totals needed to page further.
type PagedList[T any] struct {
	Items       []T
	CurrentPage int
	PageSize    int
	TotalCount  int64
	TotalPages  int
}

// NewPagedList builds a page from already-fetched items and a total count.
func NewPagedList[T any](items []T, count int64, p Params) PagedList[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int((count + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return PagedList[T]{
		Items:       items,
		CurrentPage: p.PageNumber,
		PageSize:    p.PageSize,
		TotalCount:  count,
		TotalPages:  pages,
	}
}

// Map converts page items while keeping the page metadata.
func Map[T, U any](l PagedList[T], f func(T) U) PagedList[U] {
	out := make([]U, 0, len(l.Items))
	for _, it := range l.Items {
		out = append(out, f(it))
	}
	return PagedList[U]{
		Items:       out,
		CurrentPage: l.CurrentPage,
		PageSize:    l.PageSize,
		TotalCount:  l.TotalCount,
		TotalPages:  l.TotalPages,
	}
}

// Header is the JSON body of the Pagination response header.
type Header struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

func (l PagedList[T]) Header() Header {
	return Header{
		CurrentPage:  l.CurrentPage,
		ItemsPerPage: l.PageSize,
		TotalItems:   l.TotalCount,
		TotalPages:   l.TotalPages,
	}
}

// Encode renders h as the header value.
func (h Header) Encode() (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to marshal pagination header: %w", err)
	}
	return string(b), nil
}
