package outline

import (
	"sort"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// ReadingOrder returns a copy of frags sorted top-to-bottom, then
// left-to-right. Fragments at identical coordinates keep their input order.
func ReadingOrder(frags []doctree.Fragment) []doctree.Fragment {
	sorted := make([]doctree.Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top != sorted[j].Top {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].Left < sorted[j].Left
	})
	return sorted
}
