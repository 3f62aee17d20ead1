package crawl

// MergeCast joins the starring and full-cast reference lists into one list
// without duplicates. Starring entries come first and relative order is kept.
func MergeCast(starring, cast []string) []string {
	merged := make([]string, 0, len(starring)+len(cast))
	seen := make(map[string]struct{}, len(starring)+len(cast))
	for _, list := range [][]string{starring, cast} {
		for _, ref := range list {
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			merged = append(merged, ref)
		}
	}
	return merged
}

// castItems turns a merged cast list into frontier items in push order.
//
// The list of n actors shares n(n+1)/2 weight units. Walking it from the
// tail, rank r gets (r+1) units, so the first-billed actor gets the largest
// share and is pushed last, which makes a LIFO frontier visit it first.
func castItems(merged []string, movieID int) []Item {
	n := len(merged)
	if n == 0 {
		return nil
	}
	totalUnits := float64(n * (n + 1) / 2)
	items := make([]Item, 0, n)
	for rank := 0; rank < n; rank++ {
		items = append(items, Item{
			Ref:         merged[n-1-rank],
			Predecessor: movieID,
			Weight:      float64(rank+1) / totalUnits,
		})
	}
	return items
}
