package listing

// Gap sentinels in a page-number window. They never collide with a page
// number, which is always >= 1.
const (
	GapBefore = -1
	GapAfter  = -2
)

// maxFullWindow is the largest page count rendered without gaps.
const maxFullWindow = 7

// IsGap reports whether n is an ellipsis sentinel rather than a page.
func IsGap(n int) bool {
	return n == GapBefore || n == GapAfter
}

// TotalPages returns the number of pages needed for totalItems, or 0 when
// there is nothing to page through.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// Window returns the page indicators to render for current out of total.
// Up to seven pages are listed in full. Beyond that the first and last page
// are always shown with a run of up to three pages around current, and
// elided stretches are marked with GapBefore and GapAfter.
func Window(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= maxFullWindow {
		pages := make([]int, 0, total)
		for p := 1; p <= total; p++ {
			pages = append(pages, p)
		}
		return pages
	}

	start := max(2, current-1)
	end := min(total-1, current+1)
	if current <= 3 {
		end = min(4, total-1)
	}
	if current >= total-2 {
		start = max(2, total-3)
	}

	pages := make([]int, 0, end-start+5)
	pages = append(pages, 1)
	if start > 2 {
		pages = append(pages, GapBefore)
	}
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	if end < total-1 {
		pages = append(pages, GapAfter)
	}
	return append(pages, total)
}
