package listutil

import (
	"net/url"
	"strconv"
)

// DefaultLimit is the page size used by admin list views when none is requested.
const DefaultLimit = 10

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// ListParams carries list query parameters forwarded to the backend.
// Zero Page or Limit means "not requested".
type ListParams struct {
	Page       int
	Limit      int
	SearchTerm string
	Filters    map[string]string // exact-match filters, e.g. status=approved
}

// ParseListParams extracts page, limit, searchTerm and the named filters from a query.
// PRE: filterKeys lists the allowed filter parameter names
// POST: Page and Limit are 0 when absent or invalid; Limit is capped at MaxLimit
func ParseListParams(q url.Values, filterKeys []string) ListParams {
	p := ListParams{SearchTerm: q.Get("searchTerm")}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		p.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		p.Limit = min(limit, MaxLimit)
	}
	for _, key := range filterKeys {
		if v := q.Get(key); v != "" {
			if p.Filters == nil {
				p.Filters = make(map[string]string)
			}
			p.Filters[key] = v
		}
	}
	return p
}

// Query encodes the params for the backend request. Unset values are omitted.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.SearchTerm != "" {
		q.Set("searchTerm", p.SearchTerm)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}
	return q
}

// RawPagination is the pagination block as a backend sent it. Any field may be missing.
type RawPagination struct {
	CurrentPage  *int `json:"currentPage,omitempty"`
	TotalPages   *int `json:"totalPages,omitempty"`
	TotalItems   *int `json:"totalItems,omitempty"`
	ItemsPerPage *int `json:"itemsPerPage,omitempty"`
}

// PaginationInfo is the fully populated pagination block every list response carries.
type PaginationInfo struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NormalizePagination derives a complete PaginationInfo.
// Backend fields are trusted when present; missing ones are filled from the request
// context (requestedPage, requestedLimit) and the number of items actually returned.
// PRE: itemCount >= 0; requestedPage/requestedLimit are 0 when not requested
// POST: every field >= 1 except TotalItems (>= 0); TotalPages is
// max(1, ceil(TotalItems/ItemsPerPage)) unless the backend supplied it
func NormalizePagination(raw *RawPagination, itemCount, requestedPage, requestedLimit int) PaginationInfo {
	if raw == nil {
		raw = &RawPagination{}
	}

	info := PaginationInfo{}
	info.CurrentPage = firstPositive(raw.CurrentPage, requestedPage, 1)
	info.ItemsPerPage = firstPositive(raw.ItemsPerPage, requestedLimit, itemCount)
	if info.ItemsPerPage < 1 {
		info.ItemsPerPage = 1
	}
	if raw.TotalItems != nil && *raw.TotalItems >= 0 {
		info.TotalItems = *raw.TotalItems
	} else {
		info.TotalItems = itemCount
	}
	if raw.TotalPages != nil && *raw.TotalPages >= 1 {
		info.TotalPages = *raw.TotalPages
	} else {
		info.TotalPages = TotalPages(info.TotalItems, info.ItemsPerPage)
	}
	return info
}

// TotalPages returns max(1, ceil(total/perPage)).
// PRE: perPage > 0
func TotalPages(total, perPage int) int {
	if perPage < 1 {
		return 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

func firstPositive(backend *int, requested, fallback int) int {
	if backend != nil && *backend > 0 {
		return *backend
	}
	if requested > 0 {
		return requested
	}
	return fallback
}

// HasPrev reports whether a previous page exists.
func (p PaginationInfo) HasPrev() bool { return p.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (p PaginationInfo) HasNext() bool { return p.CurrentPage < p.TotalPages }

// PageNumbers returns the page numbers to display in the pagination bar.
// Shows at most 5 pages centered around the current page.
// PRE: PaginationInfo is normalised
// POST: Returns slice of at most 5 page numbers centered on current page
func (p PaginationInfo) PageNumbers() []int {
	const maxButtons = 5
	start := p.CurrentPage - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}
