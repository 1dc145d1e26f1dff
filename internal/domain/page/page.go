// Package page slices ordered result collections into pages.
package page

import "github.com/pennersr/towel/internal/domain/record"

// Page is one bounded slice of a result collection plus pagination
// metadata. Request-scoped; built per request and discarded.
type Page struct {
	items      []record.Record
	number     int
	totalPages int
	size       int
	all        bool
	clamped    bool
}

// Paginate slices items into the requested page.
//
// size == 0 disables pagination and returns everything as one page, as does
// showAll when allowAll permits it. A requested page out of range clamps to
// the last valid page and sets the Clamped flag so callers can redirect.
// Negative sizes are a configuration error callers must reject at
// construction time; Paginate treats them like 0.
func Paginate(items []record.Record, size, number int, showAll, allowAll bool) Page {
	if size <= 0 || (showAll && allowAll) {
		return Page{
			items:      items,
			number:     1,
			totalPages: 1,
			size:       len(items),
			all:        true,
		}
	}

	totalPages := (len(items) + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	clamped := false
	if number < 1 {
		number = 1
		clamped = true
	}
	if number > totalPages {
		number = totalPages
		clamped = true
	}

	lo := (number - 1) * size
	hi := lo + size
	if hi > len(items) {
		hi = len(items)
	}
	if lo > len(items) {
		lo = len(items)
	}

	return Page{
		items:      items[lo:hi],
		number:     number,
		totalPages: totalPages,
		size:       size,
		clamped:    clamped,
	}
}

// Items returns the records on this page.
func (p Page) Items() []record.Record { return p.items }

// Number returns the 1-based page number actually served.
func (p Page) Number() int { return p.number }

// TotalPages returns the page count for the full collection.
func (p Page) TotalPages() int { return p.totalPages }

// Size returns the configured page size (or the collection length when
// the page is unpaginated).
func (p Page) Size() int { return p.size }

// All reports whether the full collection was returned as a single page.
func (p Page) All() bool { return p.all }

// Clamped reports whether the requested page was out of range and the
// served page was adjusted.
func (p Page) Clamped() bool { return p.clamped }

// HasNext reports whether a following page exists.
func (p Page) HasNext() bool { return p.number < p.totalPages }

// HasPrev reports whether a preceding page exists.
func (p Page) HasPrev() bool { return p.number > 1 }
