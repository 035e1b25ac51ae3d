// Package browse derives what a directory view shows from the raw collection
// and the session's filter state: facet option lists, the filtered result set
// and the current page of it. Every function is pure; callers own the state
// and pass it in on each recomputation.
package browse

import (
	"strings"

	"github.com/gartstein/directory/internal/directory/models"
)

// All is the facet value meaning "no constraint on this facet".
const All = "All"

// DefaultPageSize is the fixed page size used by the directory views.
const DefaultPageSize = 5

// Facets lists the selectable filter options, each starting with All
// followed by the distinct observed values in first-seen order.
type Facets struct {
	Industries []string `json:"industries"`
	Locations  []string `json:"locations"`
}

// PageResult is one page of a filtered result set.
type PageResult struct {
	Items      []models.Company
	Page       int
	TotalPages int
}

// View is everything a renderer needs for one recomputation.
type View struct {
	Facets     Facets           `json:"facets"`
	Items      []models.Company `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	HasPrev    bool             `json:"hasPrev"`
	HasNext    bool             `json:"hasNext"`
}

// DeriveFacets collects the industry and location options of companies.
func DeriveFacets(companies []models.Company) Facets {
	return Facets{
		Industries: distinct(companies, func(c *models.Company) string { return c.Industry }),
		Locations:  distinct(companies, func(c *models.Company) string { return c.Location }),
	}
}

func distinct(companies []models.Company, field func(*models.Company) string) []string {
	seen := make(map[string]struct{}, len(companies))
	out := []string{All}
	for i := range companies {
		v := field(&companies[i])
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ApplyFilters keeps the companies matching every active predicate: a
// case-insensitive substring of name or industry for a non-empty query, and
// exact industry and location matches unless the selection is All.
// The input slice is never modified.
func ApplyFilters(companies []models.Company, query, industry, location string) []models.Company {
	term := strings.ToLower(query)
	out := make([]models.Company, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		if term != "" &&
			!strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Industry), term) {
			continue
		}
		if industry != All && c.Industry != industry {
			continue
		}
		if location != All && c.Location != location {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// TotalPages is max(1, ceil(n/pageSize)).
func TotalPages(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Paginate returns the requested page of filtered. A page outside
// [1, TotalPages] resets to page 1 instead of yielding an empty slice.
func Paginate(filtered []models.Company, page, pageSize int) PageResult {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(filtered), pageSize)
	if page < 1 || page > total {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	items := make([]models.Company, end-start)
	copy(items, filtered[start:end])
	return PageResult{Items: items, Page: page, TotalPages: total}
}

// Derive runs the full pipeline for state over companies.
func Derive(companies []models.Company, state FilterState) View {
	state = state.normalized()
	filtered := ApplyFilters(companies, state.Query, state.Industry, state.Location)
	p := Paginate(filtered, state.Page, state.PageSize)
	return View{
		Facets:     DeriveFacets(companies),
		Items:      p.Items,
		Total:      len(filtered),
		Page:       p.Page,
		PageSize:   state.PageSize,
		TotalPages: p.TotalPages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < p.TotalPages,
	}
}
