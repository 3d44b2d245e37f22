package users

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// QueryDescriptor holds the filter and page parameters of one list query.
type QueryDescriptor struct {
	Page     int
	PageSize int
	Search   string
	Role     Role
	IsActive *bool
}

// QueryResult is one page of matching users.
type QueryResult struct {
	Users      []User `json:"users"`
	TotalCount int    `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// Normalize clamps page and page size to at least 1.
func (d QueryDescriptor) Normalize() QueryDescriptor {
	if d.Page < 1 {
		d.Page = 1
	}
	if d.PageSize < 1 {
		d.PageSize = 1
	}
	return d
}

// Query filters all by search, role and active flag, then slices out the
// requested page. Input order is kept and all is never modified.
func Query(all []User, d QueryDescriptor) QueryResult {
	d = d.Normalize()

	// cases.Caser is stateful; one per call.
	lower := cases.Lower(language.Und)
	needle := ""
	if d.Search != "" {
		needle = lower.String(d.Search)
	}

	filtered := make([]User, 0, len(all))
	for _, u := range all {
		if needle != "" &&
			!strings.Contains(lower.String(u.Name), needle) &&
			!strings.Contains(lower.String(u.Email), needle) {
			continue
		}
		if d.Role != "" && u.Role != d.Role {
			continue
		}
		if d.IsActive != nil && u.IsActive != *d.IsActive {
			continue
		}
		filtered = append(filtered, u)
	}

	total := len(filtered)
	start := total
	if d.Page-1 <= total/d.PageSize {
		start = min((d.Page-1)*d.PageSize, total)
	}
	end := start + min(d.PageSize, total-start)

	return QueryResult{
		Users:      filtered[start:end:end],
		TotalCount: total,
		Page:       d.Page,
		PageSize:   d.PageSize,
	}
}
