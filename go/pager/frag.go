package pager

// PagesNeeded returns ceil(size / page).
func PagesNeeded(size, page uint64) uint64 {
	return (size + page - 1) / page
}

// Fragmentation is the slack left in the last page if a segment of the
// given size were fully mapped. It depends on size alone, not on how many
// pages were actually touched.
func Fragmentation(size, page uint64) uint64 {
	return PagesNeeded(size, page)*page - size
}
