package shared

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultPageSize is used when the caller does not pick a page size.
const DefaultPageSize = 5

// PageSizeOptions lists the page sizes offered by list views.
var PageSizeOptions = []int{5, 10, 20, 50}

// windowDelta is the number of neighbours shown on each side of the current page.
const windowDelta = 2

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// PageItem is one entry of the page-number window. Ellipsis items carry no number.
type PageItem struct {
	Number   int
	Ellipsis bool
	Current  bool
}

// NewPagination computes pagination metadata. The page is clamped to the
// available range and there is always at least one page.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	totalPages := TotalPages(total, perPage)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// TotalPages returns max(1, ceil(total/perPage)).
func TotalPages(total, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	if pages < 1 {
		return 1
	}
	return pages
}

// Window returns the visible page numbers: the first and last page, the
// current page with two neighbours on each side, and an ellipsis wherever
// pages are skipped.
func (p Pagination) Window() []PageItem {
	items := []PageItem{p.item(1)}
	if p.TotalPages == 1 {
		return items
	}
	lo := max(2, p.Page-windowDelta)
	hi := min(p.TotalPages-1, p.Page+windowDelta)
	if p.Page-windowDelta > 2 {
		items = append(items, PageItem{Ellipsis: true})
	}
	for n := lo; n <= hi; n++ {
		items = append(items, p.item(n))
	}
	if p.Page+windowDelta < p.TotalPages-1 {
		items = append(items, PageItem{Ellipsis: true})
	}
	return append(items, p.item(p.TotalPages))
}

func (p Pagination) item(n int) PageItem {
	return PageItem{Number: n, Current: n == p.Page}
}

// ShowControls reports whether there is more than one page to navigate.
func (p Pagination) ShowControls() bool {
	return p.TotalPages > 1
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number.
func (p Pagination) PrevPage() int { return max(1, p.Page-1) }

// NextPage returns the next page number.
func (p Pagination) NextPage() int { return min(p.TotalPages, p.Page+1) }

// StartItem is the 1-based index of the first entry on the page, 0 when empty.
func (p Pagination) StartItem() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// EndItem is the 1-based index of the last entry on the page.
func (p Pagination) EndItem() int {
	return min(p.Page*p.PerPage, p.Total)
}

// Summary renders "Showing X to Y of Z entries" with grouped digits.
func (p Pagination) Summary() string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf("Showing %d to %d of %d entries", p.StartItem(), p.EndItem(), p.Total)
}
