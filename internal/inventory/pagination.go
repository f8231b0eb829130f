package inventory

import "strconv"

// PageSizeChoices are the selectable page sizes; "all" disables pagination.
var PageSizeChoices = []int{50, 100, 200, 500}

const DefaultPageSize = 50

// NormalizePageSize resolves the requested page size. Any active filter or
// search forces "all": filtered views are assumed small enough to show in
// full. Returns size and whether pagination is disabled.
func NormalizePageSize(raw string, filtersActive bool) (int, bool) {
	if filtersActive {
		return 0, true
	}
	if raw == "all" {
		return 0, true
	}
	if raw == "" {
		return DefaultPageSize, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultPageSize, false
	}
	for _, choice := range PageSizeChoices {
		if n == choice {
			return n, false
		}
	}
	return DefaultPageSize, false
}

// ClampPage resolves a requested page number against the page count without
// ever erroring: non-integer input falls back to page 1, out-of-range input
// to the nearest valid page.
func ClampPage(raw string, numPages int) int {
	if numPages < 1 {
		numPages = 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > numPages {
		return numPages
	}
	return n
}

// NumPages computes the page count for a total row count.
func NumPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

// Window is the numeric pagination widget state: the first and last page are
// always shown, plus a sliding window of up to windowSize pages around the
// current one, with ellipsis flags when the window does not reach an edge.
type Window struct {
	Pages             []int `json:"pages"`
	ShowFirstEllipsis bool  `json:"show_first_ellipsis"`
	ShowLastEllipsis  bool  `json:"show_last_ellipsis"`
}

const windowSize = 5

// PageWindow computes the sliding page window for the pagination widget.
func PageWindow(current, numPages int) Window {
	if numPages <= 7 {
		pages := make([]int, 0, numPages)
		for p := 1; p <= numPages; p++ {
			pages = append(pages, p)
		}
		return Window{Pages: pages}
	}

	start := current - 2
	if start < 2 {
		start = 2
	}
	end := current + 2
	if end > numPages-1 {
		end = numPages - 1
	}

	// Widen to a full window when the current page hugs an edge.
	if end-start+1 < windowSize {
		if start == 2 {
			end = start + windowSize - 1
			if end > numPages-1 {
				end = numPages - 1
			}
		} else if end == numPages-1 {
			start = end - windowSize + 1
			if start < 2 {
				start = 2
			}
		}
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}

	return Window{
		Pages:             pages,
		ShowFirstEllipsis: start > 2,
		ShowLastEllipsis:  end < numPages-1,
	}
}

// LocatePage finds which page an item lands on given the ordered id list of
// the unfiltered sort. Unknown ids resolve to page 1.
func LocatePage(orderedIDs []int64, itemID int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	for idx, id := range orderedIDs {
		if id == itemID {
			return idx/pageSize + 1
		}
	}
	return 1
}
