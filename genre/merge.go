package genre

// ReleaseMap is the single release level score map an album's scope
// maps merge into. It lives for one album only.
type ReleaseMap struct {
	scores map[string]float64
	order  []string
}

func (rm *ReleaseMap) add(name string, score float64) {
	if _, ok := rm.scores[name]; !ok {
		rm.order = append(rm.order, name)
	}
	rm.scores[name] += score
}

func (rm *ReleaseMap) Len() int { return len(rm.scores) }

func (rm *ReleaseMap) Score(name string) float64 { return rm.scores[name] }

// Merge combines scope maps into one release map. Album scopes enter
// unscaled, artist scopes scaled by the artist multiplier, various
// scopes scaled by their track count times the various multiplier.
// Strictly additive, nothing is averaged or re-normalised here.
func (r *Resolver) Merge(maps ...*ScopeMap) *ReleaseMap {
	rel := &ReleaseMap{scores: map[string]float64{}}
	for _, sm := range maps {
		if sm == nil {
			continue
		}
		mult := 1.0
		switch sm.Scope {
		case ScopeArtist:
			mult = r.conf.Artist
		case ScopeVarious:
			tracks := max(1, sm.Tracks)
			mult = r.conf.Various * float64(tracks)
		}
		if mult == 0 {
			continue
		}
		for _, name := range sm.order {
			rel.add(name, mult*sm.scores[name])
		}
	}
	return rel
}
