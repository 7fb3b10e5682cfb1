// Package search filters and paginates an in-memory record sequence.
// It backs the list pages: the caller hands over the full record set for one
// owner and gets back a single page of matches plus the total match count.
package search

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// StatusAll disables the status predicate.
const StatusAll = "all"

// DefaultPageSize replaces a non-positive page size.
const DefaultPageSize = 10

// Record is anything the filter can read. SearchFields may contain nil entries
// for absent values; they compare as the empty string.
type Record interface {
	SearchStatus() string
	SearchFields() []*string
}

// Config is one filter/pagination request. Page is 1-based.
type Config struct {
	Term     string
	Status   string
	Page     int
	PageSize int
}

// Result is one page of matches and the number of matches across all pages.
type Result[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// Normalize clamps out-of-range pagination values instead of rejecting them.
func (c Config) Normalize() Config {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.PageSize < 1 {
		c.PageSize = DefaultPageSize
	}
	if c.Status == "" {
		c.Status = StatusAll
	}
	return c
}

// Offset is the 0-based position of the first match on the configured page.
// It saturates at math.MaxInt when the page is too large to address.
func (c Config) Offset() int {
	n := c.Normalize()
	start, _ := n.bounds()
	return start
}

// bounds returns the half-open match window [start, end) for a normalized
// config, saturating instead of wrapping on overflow.
func (c Config) bounds() (start, end int) {
	if c.Page-1 > (math.MaxInt-c.PageSize)/c.PageSize {
		return math.MaxInt, math.MaxInt
	}
	start = (c.Page - 1) * c.PageSize
	return start, start + c.PageSize
}

// Apply scans records once, in the order given, and returns the requested page.
// A page past the last match yields an empty slice and the real total.
func Apply[T Record](records []T, cfg Config) Result[T] {
	cfg = cfg.Normalize()

	fold := cases.Fold()
	term := fold.String(cfg.Term)

	start, end := cfg.bounds()

	res := Result[T]{Items: make([]T, 0, min(cfg.PageSize, len(records)))}
	for _, r := range records {
		if !statusMatches(r, cfg.Status) || !textMatches(r, term, fold) {
			continue
		}
		if res.Total >= start && res.Total < end {
			res.Items = append(res.Items, r)
		}
		res.Total++
	}
	return res
}

// PageCount is the number of pages needed to show total matches.
func PageCount(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}

func statusMatches(r Record, status string) bool {
	return status == StatusAll || r.SearchStatus() == status
}

func textMatches(r Record, foldedTerm string, fold cases.Caser) bool {
	if foldedTerm == "" {
		return true
	}
	for _, f := range r.SearchFields() {
		if f == nil || *f == "" {
			continue
		}
		if strings.Contains(fold.String(*f), foldedTerm) {
			return true
		}
	}
	return false
}
