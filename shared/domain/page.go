package domain

// PageCount is ceil(total/perPage), never less than 1.
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageBounds returns the [start, end) slice bounds of a 1-indexed page.
// ok is false when page lies beyond the last page.
func PageBounds(total, perPage, page int) (start, end int, ok bool) {
	page = max(1, page)
	if page > PageCount(total, perPage) {
		return 0, 0, false
	}
	start = min((page-1)*perPage, total)
	end = min(start+perPage, total)
	return start, end, true
}
