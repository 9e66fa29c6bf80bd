package genre

import (
	"log/slog"
	"math"
)

// Decay for providers that return tags without occurrence counts. The
// more tags such a provider returns at once, the less each one says.
const countlessDecay = 0.85

// Add scores a provider's raw tags into a scope map. srcMult is the per
// source trust weight. It returns how many raw tags were usable and how
// many canonical entries were added.
//
// Tags with counts score count/max so the top tag lands on exactly 1.
// Tags without counts all score decay^(n-1), floored. Malformed tags
// are dropped with a warning, never an error.
func (r *Resolver) Add(sm *ScopeMap, srcMult float64, tags []RawTag) (found, added int) {
	var valid []RawTag
	for _, t := range tags {
		if t.Name == "" || (t.HasCount && t.Count < 0) {
			slog.Warn("dropping malformed tag", "scope", sm.Scope, "name", t.Name, "count", t.Count)
			continue
		}
		valid = append(valid, t)
	}

	var maxCount int
	for _, t := range valid {
		if t.HasCount && t.Count > maxCount {
			maxCount = t.Count
		}
	}
	counted := maxCount > 0

	for _, t := range valid {
		var score float64
		if counted {
			score = float64(t.Count) / float64(maxCount)
		} else {
			score = math.Max(r.conf.Floor, math.Pow(countlessDecay, float64(len(valid)-1)))
		}
		score *= srcMult

		for _, nm := range r.norm.Normalize(t.Name) {
			s := score * nm.Factor * r.loveHate(nm.Name)
			if s <= 0 {
				continue
			}
			sm.add(nm.Name, s)
			added++
		}
	}
	return len(valid), added
}

func (r *Resolver) loveHate(name string) float64 {
	if _, ok := r.love[name]; ok {
		return r.conf.LoveMult
	}
	if _, ok := r.hate[name]; ok {
		return r.conf.HateMult
	}
	return 1
}
