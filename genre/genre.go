// Package genre turns noisy per provider tag lists into a small ranked
// set of canonical genre names for one release.
package genre

import (
	"cmp"
	"slices"

	"go.senan.xyz/wlg/rules"
)

// Scope is the query context a tag score belongs to.
type Scope string

const (
	ScopeArtist  Scope = "artist"
	ScopeAlbum   Scope = "album"
	ScopeVarious Scope = "various"
)

// RawTag is one tag as returned by a provider, before any processing.
type RawTag struct {
	Name     string `json:"name"`
	Count    int    `json:"count,omitempty"`
	HasCount bool   `json:"has_count,omitempty"`
}

type ScoredTag struct {
	Name  string
	Score float64
}

const (
	DefaultTagLimit = 4
	DefaultSplitup  = 0.33
	DefaultArtist   = 1.33
	DefaultVarious  = 0.66
	DefaultMinimum  = 0.1
	DefaultFloor    = 0.1
	DefaultLoveMult = 2.0
	DefaultHateMult = 0.5
)

type Config struct {
	TagLimit int
	Splitup  float64 // weight kept by the unsplit form of a split tag
	Artist   float64 // artist scope multiplier, 0 disables the scope
	Various  float64 // various artists scope multiplier
	Minimum  float64 // final score cutoff, 0 disables
	Floor    float64 // lowest countless score

	LoveMult, HateMult float64
	Love, Hate         []string

	Whitelist []string // exact canonical names, overrides category filters
	Blacklist []string
	Filters   []string // category filter selections, eg "instrument"
}

func DefaultConfig() Config {
	return Config{
		TagLimit: DefaultTagLimit,
		Splitup:  DefaultSplitup,
		Artist:   DefaultArtist,
		Various:  DefaultVarious,
		Minimum:  DefaultMinimum,
		Floor:    DefaultFloor,
		LoveMult: DefaultLoveMult,
		HateMult: DefaultHateMult,
	}
}

// Resolver holds the rule tables and score parameters for one run. It
// keeps no per release state, one Resolver serves all albums.
type Resolver struct {
	conf  Config
	rules *rules.Rules
	norm  *Normalizer

	love, hate map[string]struct{}
	whitelist  map[string]struct{}
	blacklist  map[string]struct{}
}

func NewResolver(rl *rules.Rules, conf Config) *Resolver {
	r := &Resolver{
		conf:      conf,
		rules:     rl,
		norm:      NewNormalizer(rl, conf.Splitup),
		love:      nameSet(conf.Love),
		hate:      nameSet(conf.Hate),
		blacklist: nameSet(conf.Blacklist),
	}
	if len(conf.Whitelist) > 0 {
		r.whitelist = nameSet(conf.Whitelist)
	}
	return r
}

func (r *Resolver) Normalizer() *Normalizer { return r.norm }

// ScopeMap accumulates scores for one query scope. Tracks only matters
// for various scopes, where it weights the whole map on merge.
type ScopeMap struct {
	Scope  Scope
	Tracks int

	scores map[string]float64
	order  []string
}

func NewScopeMap(scope Scope) *ScopeMap {
	return &ScopeMap{Scope: scope, scores: map[string]float64{}}
}

func (sm *ScopeMap) add(name string, score float64) {
	if _, ok := sm.scores[name]; !ok {
		sm.order = append(sm.order, name)
	}
	sm.scores[name] += score
}

func (sm *ScopeMap) Len() int { return len(sm.scores) }

// Scored returns the scope's tags by descending score, first seen first
// on equal scores.
func (sm *ScopeMap) Scored() []ScoredTag {
	tags := make([]ScoredTag, 0, len(sm.order))
	for _, name := range sm.order {
		tags = append(tags, ScoredTag{Name: name, Score: sm.scores[name]})
	}
	slices.SortStableFunc(tags, func(a, b ScoredTag) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return tags
}

func nameSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[normName(n)] = struct{}{}
	}
	return set
}
