package genre

import (
	"strings"

	"github.com/rainycape/unidecode"
	"go.senan.xyz/wlg/rules"
)

// Norm is one canonical name derived from a raw tag. Factor is 1 for a
// genuine split part and the splitup weight for the unsplit form that
// was kept alongside its parts.
type Norm struct {
	Name   string
	Factor float64
}

type Normalizer struct {
	rules   *rules.Rules
	splitup float64
}

func NewNormalizer(rl *rules.Rules, splitup float64) *Normalizer {
	return &Normalizer{rules: rl, splitup: splitup}
}

// Normalize canonicalises a raw tag name. The steps run in a fixed
// order: lowercase and fold, regex substitutions, alias lookup,
// structural separator split, then a prefix split on each piece.
// Prefix split output is never split again.
func (n *Normalizer) Normalize(raw string) []Norm {
	name := normName(raw)
	name = n.rules.Substitute(name)
	if alias, ok := n.rules.Alias(name); ok {
		name = alias
	}
	name = collapseSpace(name)
	if name == "" {
		return nil
	}

	pieces := n.splitStructural(name)
	if pieces == nil {
		return n.splitPrefix(name)
	}
	var out []Norm
	for _, piece := range pieces {
		out = append(out, n.splitPrefix(piece)...)
	}
	return out
}

var structuralReplacer = strings.NewReplacer(" and ", " & ")

// splitStructural splits name on tag joiners, or returns nil when there
// is nothing to split. The dontsplit check runs on the "&" spelling as
// well, so "drum and bass" survives whenever "drum & bass" would, and
// comes out in the "&" form.
func (n *Normalizer) splitStructural(name string) []string {
	if n.rules.DontSplit(name) {
		return nil
	}
	joined := structuralReplacer.Replace(name)
	if joined != name && n.rules.DontSplit(joined) {
		return []string{joined}
	}
	pieces := strings.FieldsFunc(joined, func(r rune) bool {
		switch r {
		case '&', '/', '+', ',', ';', '\\':
			return true
		}
		return false
	})
	if len(pieces) < 2 {
		return nil
	}
	for i, p := range pieces {
		pieces[i] = collapseSpace(p)
	}
	pieces = deleteEmpty(pieces)
	if len(pieces) < 2 {
		return nil
	}
	return pieces
}

// splitPrefix splits "alternative rock" style tags into the qualifier
// and the base genre at full weight, keeping the compound itself at the
// splitup weight.
func (n *Normalizer) splitPrefix(name string) []Norm {
	first, rest, ok := strings.Cut(name, " ")
	if !ok || !n.rules.IsPrefix(first) {
		return []Norm{{Name: name, Factor: 1}}
	}
	return []Norm{
		{Name: first, Factor: 1},
		{Name: rest, Factor: 1},
		{Name: name, Factor: n.splitup},
	}
}

func normName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = unidecode.Unidecode(name)
	name = strings.ReplaceAll(name, "_", " ")
	return collapseSpace(name)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func deleteEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
