// Package listing holds the filter, sort and pagination state of list
// screens. Every change that narrows or reorders the list sends the user
// back to the first page.
package listing

import (
	"maps"
	"strings"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

const DefaultPageSize = 20

// State is the view state of one list. The zero value is not ready for
// use; call New.
type State struct {
	Page      int
	PageSize  int
	Search    string
	Filters   map[string]string
	SortBy    string
	SortOrder apiclient.SortOrder
}

func New(pageSize int) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{
		Page:      1,
		PageSize:  pageSize,
		Filters:   map[string]string{},
		SortOrder: apiclient.SortAsc,
	}
}

// clone copies the filters so that states stay independent values.
func (s State) clone() State {
	s.Filters = maps.Clone(s.Filters)
	if s.Filters == nil {
		s.Filters = map[string]string{}
	}
	return s
}

func (s State) SetSearch(q string) State {
	s = s.clone()
	s.Search = q
	s.Page = 1
	return s
}

// SetFilter sets a filter; an empty value removes it.
func (s State) SetFilter(key, value string) State {
	s = s.clone()
	if value == "" {
		delete(s.Filters, key)
	} else {
		s.Filters[key] = value
	}
	s.Page = 1
	return s
}

// Filter returns the value of a filter.
func (s State) Filter(key string) string {
	return s.Filters[key]
}

// ClearFilters removes the search and every filter.
func (s State) ClearFilters() State {
	s = s.clone()
	s.Search = ""
	s.Filters = map[string]string{}
	s.Page = 1
	return s
}

func (s State) SetPage(page int) State {
	s = s.clone()
	s.Page = max(page, 1)
	return s
}

func (s State) SetPageSize(size int) State {
	s = s.clone()
	if size <= 0 {
		size = DefaultPageSize
	}
	s.PageSize = size
	s.Page = 1
	return s
}

// ToggleSort sorts by field ascending, or flips the order when already
// sorted by field.
func (s State) ToggleSort(field string) State {
	s = s.clone()
	if s.SortBy == field {
		if s.SortOrder == apiclient.SortAsc {
			s.SortOrder = apiclient.SortDesc
		} else {
			s.SortOrder = apiclient.SortAsc
		}
	} else {
		s.SortBy = field
		s.SortOrder = apiclient.SortAsc
	}
	s.Page = 1
	return s
}

// HasActiveFilters reports whether a search or filter narrows the list.
func (s State) HasActiveFilters() bool {
	return strings.TrimSpace(s.Search) != "" || len(s.Filters) > 0
}

// TotalPages returns the page count for total items, at least 1.
func (s State) TotalPages(total int) int {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// Clamp moves Page back into range once total is known, for example after
// deleting the last item of the last page.
func (s State) Clamp(total int) State {
	if last := s.TotalPages(total); s.Page > last {
		s = s.clone()
		s.Page = last
	}
	return s
}
