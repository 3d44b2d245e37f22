package users

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/useradmin/internal/shared"
)

const maxPageSize = 100

// ListState is the filter and pagination state of one list view. It is built
// from the request, changed through its methods and discarded after the
// response is rendered.
type ListState struct {
	Search   string
	Role     Role
	Active   string // "", "true" or "false"
	Page     int
	PageSize int
}

// NewListState returns the initial state.
func NewListState(pageSize int) ListState {
	if pageSize < 1 {
		pageSize = shared.DefaultPageSize
	}
	return ListState{Page: 1, PageSize: min(pageSize, maxPageSize)}
}

// ParseListState reads the state from query parameters. Malformed numbers
// fall back to safe values instead of failing.
func ParseListState(q url.Values, defaultPageSize int) ListState {
	s := NewListState(defaultPageSize)
	if q.Get("clear") != "" {
		return s
	}
	s.Search = strings.TrimSpace(q.Get("search"))
	if role := Role(q.Get("role")); role.Valid() {
		s.Role = role
	}
	switch active := q.Get("isActive"); active {
	case "true", "false":
		s.Active = active
	}
	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size >= 1 {
		s.PageSize = min(size, maxPageSize)
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page >= 1 {
		s.Page = page
	}
	return s
}

// SetSearch changes the search filter and returns to the first page.
func (s *ListState) SetSearch(search string) {
	s.Search = strings.TrimSpace(search)
	s.Page = 1
}

// SetRole changes the role filter and returns to the first page.
func (s *ListState) SetRole(role Role) {
	if role != "" && !role.Valid() {
		role = ""
	}
	s.Role = role
	s.Page = 1
}

// SetActive changes the active filter and returns to the first page. Nil
// clears the filter.
func (s *ListState) SetActive(active *bool) {
	switch {
	case active == nil:
		s.Active = ""
	case *active:
		s.Active = "true"
	default:
		s.Active = "false"
	}
	s.Page = 1
}

// SetPage moves to page n, clamped to at least 1.
func (s *ListState) SetPage(n int) {
	s.Page = max(1, n)
}

// SetPageSize changes the page size and returns to the first page.
func (s *ListState) SetPageSize(n int) {
	if n < 1 {
		n = shared.DefaultPageSize
	}
	s.PageSize = min(n, maxPageSize)
	s.Page = 1
}

// Clear drops all filters and returns to the first page.
func (s *ListState) Clear() {
	s.Search = ""
	s.Role = ""
	s.Active = ""
	s.Page = 1
}

// HasFilters reports whether any filter is set.
func (s ListState) HasFilters() bool {
	return s.Search != "" || s.Role != "" || s.Active != ""
}

// IsActive converts the active filter to its tri-state form.
func (s ListState) IsActive() *bool {
	switch s.Active {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// Descriptor builds the query descriptor for the Query Engine.
func (s ListState) Descriptor() QueryDescriptor {
	return QueryDescriptor{
		Page:     s.Page,
		PageSize: s.PageSize,
		Search:   s.Search,
		Role:     s.Role,
		IsActive: s.IsActive(),
	}
}

// Values encodes the state as query parameters.
func (s ListState) Values() url.Values {
	v := url.Values{}
	if s.Search != "" {
		v.Set("search", s.Search)
	}
	if s.Role != "" {
		v.Set("role", string(s.Role))
	}
	if s.Active != "" {
		v.Set("isActive", s.Active)
	}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("pageSize", strconv.Itoa(s.PageSize))
	return v
}

// PageURL returns the list URL for page n with the current filters.
func (s ListState) PageURL(base string, n int) string {
	next := s
	next.SetPage(n)
	return base + "?" + next.Values().Encode()
}
