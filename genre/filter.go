package genre

import (
	"cmp"
	"slices"
)

// Top filters and ranks a release map into the final genre list, capped
// at the tag limit. Whitelist beats category filters when configured,
// the explicit blacklist always applies, then the minimum score cutoff.
// Ties keep first seen order.
func (r *Resolver) Top(rel *ReleaseMap) []string {
	var keep []ScoredTag
	for _, name := range rel.order {
		score := rel.scores[name]
		if r.whitelist != nil {
			if _, ok := r.whitelist[name]; !ok {
				continue
			}
		} else if r.rules.Filtered(r.conf.Filters, name) {
			continue
		}
		if _, ok := r.blacklist[name]; ok {
			continue
		}
		if r.conf.Minimum > 0 && score < r.conf.Minimum {
			continue
		}
		keep = append(keep, ScoredTag{Name: name, Score: score})
	}

	slices.SortStableFunc(keep, func(a, b ScoredTag) int {
		return cmp.Compare(b.Score, a.Score)
	})

	limit := r.conf.TagLimit
	if limit <= 0 {
		limit = DefaultTagLimit
	}
	keep = keep[:min(limit, len(keep))]

	genres := make([]string, 0, len(keep))
	for _, t := range keep {
		genres = append(genres, r.Format(t.Name))
	}
	return genres
}
