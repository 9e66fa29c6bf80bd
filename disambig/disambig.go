// Package disambig picks one candidate out of several structurally
// plausible provider results, with optional human input. It handles
// release level metadata only, never genre tags.
package disambig

import (
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type State int

const (
	Collected State = iota
	Filtered
	Resolved
	AwaitingChoice
	Done
)

func (s State) String() string {
	switch s {
	case Collected:
		return "collected"
	case Filtered:
		return "filtered"
	case Resolved:
		return "resolved"
	case AwaitingChoice:
		return "awaiting-choice"
	case Done:
		return "done"
	}
	return "unknown"
}

type Candidate struct {
	ID        string // stable external identifier when known
	Title     string // descriptive text compared against the query
	Info      string // display line for prompts
	Year      int
	Type      string // release classification, eg "Album", "EP"
	Confirmed bool   // a confirmed/owned hint, eg from an origin file
}

type Query struct {
	ID   string // expected external identifier, if any
	Text string // descriptive text of what we're looking for
	Year int
}

// Chooser supplies a selection for candidates that couldn't be resolved
// automatically. Returning ok=false skips, leaving the metadata unset.
type Chooser func(q Query, cands []Candidate) (choice int, ok bool)

const defaultMinSimilarity = 0.75

// Resolver ranks and resolves candidate lists. Selections are
// remembered per artist for the rest of the run.
type Resolver struct {
	Auto          bool    // resolve by similarity without asking
	MinSimilarity float64 // confidence needed for an automatic resolve
	Choose        Chooser

	memo map[string]string
	dmp  *diffmatchpatch.DiffMatchPatch
}

func NewResolver(auto bool, choose Chooser) *Resolver {
	return &Resolver{
		Auto:          auto,
		MinSimilarity: defaultMinSimilarity,
		Choose:        choose,
		memo:          map[string]string{},
		dmp:           diffmatchpatch.New(),
	}
}

// Resolve runs Collected -> Filtered -> (Resolved | AwaitingChoice) ->
// Done for one candidate list. AwaitingChoice means input was needed
// but no chooser is set, an answered choice comes back Done. artistKey
// scopes the selection memo so repeated albums by one artist don't
// re-prompt. A nil candidate means skip; genre processing continues
// without the metadata either way.
func (r *Resolver) Resolve(artistKey string, q Query, cands []Candidate) (*Candidate, State) {
	if len(cands) == 0 {
		return nil, Done
	}

	if id, ok := r.memo[artistKey]; ok && artistKey != "" {
		for i := range cands {
			if cands[i].ID == id {
				return &cands[i], Resolved
			}
		}
	}

	cands = r.filter(q, cands)
	if len(cands) == 1 {
		return r.resolved(artistKey, &cands[0]), Resolved
	}

	if c := r.bySimilarity(q, cands); c != nil {
		return r.resolved(artistKey, c), Resolved
	}

	if r.Choose == nil {
		return nil, AwaitingChoice
	}
	choice, ok := r.Choose(q, cands)
	if !ok || choice < 0 || choice >= len(cands) {
		return nil, Done
	}
	return r.resolved(artistKey, &cands[choice]), Done
}

// filter applies the cheap discriminators, narrowing only when a
// discriminator leaves at least one candidate standing.
func (r *Resolver) filter(q Query, cands []Candidate) []Candidate {
	if q.ID != "" {
		if kept := keep(cands, func(c Candidate) bool { return c.ID == q.ID }); len(kept) > 0 {
			return kept
		}
	}
	if kept := keep(cands, func(c Candidate) bool { return c.Confirmed }); len(kept) > 0 {
		cands = kept
	}
	if q.Year != 0 {
		if kept := keep(cands, func(c Candidate) bool { return c.Year == q.Year }); len(kept) > 0 {
			cands = kept
		}
	}
	return cands
}

// bySimilarity ranks candidates against the query text. Near exact
// matches win outright, otherwise full edit distance comparison runs
// over every candidate and the best must clear the confidence bar.
func (r *Resolver) bySimilarity(q Query, cands []Candidate) *Candidate {
	if q.Text == "" {
		return nil
	}
	want := searchNorm(q.Text)

	var exact []*Candidate
	for i := range cands {
		if searchNorm(cands[i].Title) == want {
			exact = append(exact, &cands[i])
		}
	}
	if len(exact) == 1 {
		return exact[0]
	}

	if !r.Auto {
		return nil
	}

	var best *Candidate
	var bestSim float64
	for i := range cands {
		sim := r.similarity(want, searchNorm(cands[i].Title))
		if sim > bestSim {
			best, bestSim = &cands[i], sim
		}
	}
	if bestSim < r.MinSimilarity {
		return nil
	}
	return best
}

func (r *Resolver) similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	diffs := r.dmp.DiffMain(a, b, false)
	dist := r.dmp.DiffLevenshtein(diffs)
	longest := max(len([]rune(a)), len([]rune(b)))
	return 1 - float64(dist)/float64(longest)
}

func (r *Resolver) resolved(artistKey string, c *Candidate) *Candidate {
	if artistKey != "" && c.ID != "" {
		r.memo[artistKey] = c.ID
	}
	return c
}

func keep(cands []Candidate, f func(Candidate) bool) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if f(c) {
			out = append(out, c)
		}
	}
	return out
}

// searchNorm strips case, punctuation and spacing for comparison.
func searchNorm(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
