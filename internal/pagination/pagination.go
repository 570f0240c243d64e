// Package pagination slices materialized result sets into pages.
package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (page-1)*limit within int for every allowed limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params selects a page. Zero values take the defaults.
type Params struct {
	Page  int
	Limit int
}

// Parse reads page and limit from their query-string form. Missing or
// malformed values fall back to the defaults.
func Parse(page, limit string) Params {
	p, _ := strconv.Atoi(page)
	l, _ := strconv.Atoi(limit)
	return Params{Page: p, Limit: l}.Normalize()
}

// Normalize clamps page to 1..MaxPage and limit to 1..MaxLimit.
func (p Params) Normalize() Params {
	switch {
	case p.Page < 1:
		p.Page = DefaultPage
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Page is one slice of a result set plus the totals needed to walk it.
type Page[T any] struct {
	Docs          []T  `json:"docs"`
	TotalDocs     int  `json:"totalDocs"`
	Limit         int  `json:"limit"`
	Page          int  `json:"page"`
	TotalPages    int  `json:"totalPages"`
	PagingCounter int  `json:"pagingCounter"`
	HasPrevPage   bool `json:"hasPrevPage"`
	HasNextPage   bool `json:"hasNextPage"`
	PrevPage      *int `json:"prevPage"`
	NextPage      *int `json:"nextPage"`
}

// Paginate returns items[(page-1)*limit, page*limit). Pages past the end are
// empty but still report accurate totals.
func Paginate[T any](items []T, params Params) Page[T] {
	params = params.Normalize()
	total := len(items)
	totalPages := (total + params.Limit - 1) / params.Limit

	start := (params.Page - 1) * params.Limit
	docs := []T{}
	if params.Page <= totalPages {
		end := min(start+params.Limit, total)
		docs = append(docs, items[start:end]...)
	}

	page := Page[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         params.Limit,
		Page:          params.Page,
		TotalPages:    totalPages,
		PagingCounter: start + 1,
		HasPrevPage:   params.Page > 1,
		HasNextPage:   params.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := min(params.Page-1, max(totalPages, 1))
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := params.Page + 1
		page.NextPage = &next
	}
	return page
}
