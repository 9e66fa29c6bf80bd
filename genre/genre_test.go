package genre_test

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/wlg/genre"
	"go.senan.xyz/wlg/rules"
)

const testRules = `
[alias]
rnb = r&b
goth = gothic

[regex]
^d(rum)? ?('?n'?|and) ?b(ass)?$ = drum & bass
^(hip|trip) ?hop$ = ${1}-hop

[uppercase]
idm

[prefix]
alternative
nu
progressive

[dontsplit]
drum & bass
r&b

[filter_instrument]
guitar

[filter_location]
german
`

func testResolver(t *testing.T, conf genre.Config) *genre.Resolver {
	t.Helper()
	rl, err := rules.Parse(strings.NewReader(testRules))
	require.NoError(t, err)
	return genre.NewResolver(rl, conf)
}

func scores(sm *genre.ScopeMap) map[string]float64 {
	out := map[string]float64{}
	for _, t := range sm.Scored() {
		out[t.Name] = t.Score
	}
	return out
}

func TestCountBasedScoring(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	found, added := r.Add(sm, 1, []genre.RawTag{
		{Name: "rock", Count: 10, HasCount: true},
		{Name: "pop", Count: 5, HasCount: true},
		{Name: "jazz", Count: 1, HasCount: true},
	})
	assert.Equal(t, 3, found)
	assert.Equal(t, 3, added)

	got := scores(sm)
	assert.Equal(t, 1.0, got["rock"])
	for name, score := range got {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 1.0, name)
	}
	assert.InDelta(t, 0.5, got["pop"], 1e-9)
	assert.InDelta(t, 0.1, got["jazz"], 1e-9)
}

func TestCountlessScoring(t *testing.T) {
	conf := genre.DefaultConfig()
	r := testResolver(t, conf)

	var prev = 1.0
	for n := 1; n <= 30; n++ {
		sm := genre.NewScopeMap(genre.ScopeAlbum)
		var tags []genre.RawTag
		for i := range n {
			tags = append(tags, genre.RawTag{Name: fmt.Sprintf("tag%d", i)})
		}
		r.Add(sm, 1, tags)

		got := scores(sm)
		score := got["tag0"]
		want := math.Max(conf.Floor, math.Pow(0.85, float64(n-1)))
		assert.InDelta(t, want, score, 1e-9, "n=%d", n)
		assert.GreaterOrEqual(t, score, conf.Floor, "n=%d", n)
		assert.LessOrEqual(t, score, prev, "n=%d", n)
		prev = score
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())
	norm := r.Normalizer()

	for _, name := range []string{"rock", "gothic", "r&b", "drum & bass", "hip-hop"} {
		got := norm.Normalize(name)
		require.Len(t, got, 1, name)
		assert.Equal(t, name, got[0].Name)
		assert.Equal(t, 1.0, got[0].Factor)
	}
}

func TestNormalizeAliasAndRegex(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())
	norm := r.Normalizer()

	got := norm.Normalize("RnB")
	require.Len(t, got, 1)
	assert.Equal(t, "r&b", got[0].Name)

	got = norm.Normalize("Drum'n'Bass")
	require.Len(t, got, 1)
	assert.Equal(t, "drum & bass", got[0].Name)

	got = norm.Normalize("Hip Hop")
	require.Len(t, got, 1)
	assert.Equal(t, "hip-hop", got[0].Name)
}

func TestSplitStructural(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())
	norm := r.Normalizer()

	got := norm.Normalize("rock/pop")
	require.Len(t, got, 2)
	assert.Equal(t, genre.Norm{Name: "rock", Factor: 1}, got[0])
	assert.Equal(t, genre.Norm{Name: "pop", Factor: 1}, got[1])

	got = norm.Normalize("jazz + funk, soul")
	require.Len(t, got, 3)

	// the "and" spelling of a dontsplit entry survives and folds to "&"
	got = norm.Normalize("Drum and Bass")
	require.Len(t, got, 1)
	assert.Equal(t, genre.Norm{Name: "drum & bass", Factor: 1}, got[0])

	got = norm.Normalize("rock and roll")
	require.Len(t, got, 2)
	assert.Equal(t, "rock", got[0].Name)
	assert.Equal(t, "roll", got[1].Name)
}

func TestSplitPrefix(t *testing.T) {
	conf := genre.DefaultConfig()
	r := testResolver(t, conf)

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(sm, 1, []genre.RawTag{{Name: "Alternative Rock"}})

	got := scores(sm)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got["alternative"])
	assert.Equal(t, 1.0, got["rock"])
	assert.InDelta(t, 0.33, got["alternative rock"], 1e-9)
}

func TestSplitCascade(t *testing.T) {
	// separator first, then prefix per piece
	r := testResolver(t, genre.DefaultConfig())
	norm := r.Normalizer()

	got := norm.Normalize("nu metal / pop")
	require.Len(t, got, 4)
	assert.Equal(t, genre.Norm{Name: "nu", Factor: 1}, got[0])
	assert.Equal(t, genre.Norm{Name: "metal", Factor: 1}, got[1])
	assert.Equal(t, genre.Norm{Name: "nu metal", Factor: genre.DefaultSplitup}, got[2])
	assert.Equal(t, genre.Norm{Name: "pop", Factor: 1}, got[3])
}

func TestSplitupZeroDiscardsCompound(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Splitup = 0
	r := testResolver(t, conf)

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(sm, 1, []genre.RawTag{{Name: "Alternative Rock"}})

	got := scores(sm)
	assert.NotContains(t, got, "alternative rock")
	assert.Contains(t, got, "alternative")
	assert.Contains(t, got, "rock")
}

func TestAccumulateSameName(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	// both normalize to hip-hop and should sum within the scope
	r.Add(sm, 1, []genre.RawTag{
		{Name: "Hip Hop", Count: 10, HasCount: true},
		{Name: "Hip-Hop", Count: 10, HasCount: true},
	})

	got := scores(sm)
	require.Len(t, got, 1)
	assert.InDelta(t, 2.0, got["hip-hop"], 1e-9)
}

func TestLoveHate(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Love = []string{"jazz"}
	conf.Hate = []string{"pop"}
	r := testResolver(t, conf)

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(sm, 1, []genre.RawTag{
		{Name: "jazz", Count: 10, HasCount: true},
		{Name: "pop", Count: 10, HasCount: true},
		{Name: "rock", Count: 10, HasCount: true},
	})

	got := scores(sm)
	assert.InDelta(t, 2.0, got["jazz"], 1e-9)
	assert.InDelta(t, 0.5, got["pop"], 1e-9)
	assert.InDelta(t, 1.0, got["rock"], 1e-9)
}

func TestSourceMultiplier(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(sm, 1.5, []genre.RawTag{{Name: "rock", Count: 10, HasCount: true}})

	got := scores(sm)
	assert.InDelta(t, 1.5, got["rock"], 1e-9)
}

func TestMalformedDropped(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	sm := genre.NewScopeMap(genre.ScopeAlbum)
	found, added := r.Add(sm, 1, []genre.RawTag{
		{Name: ""},
		{Name: "bad", Count: -1, HasCount: true},
		{Name: "rock", Count: 5, HasCount: true},
	})
	assert.Equal(t, 1, found)
	assert.Equal(t, 1, added)
	assert.Contains(t, scores(sm), "rock")
}

func TestMergeArtist(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{{Name: "rock"}})
	artist := genre.NewScopeMap(genre.ScopeArtist)
	r.Add(artist, 1, []genre.RawTag{{Name: "rock"}})

	rel := r.Merge(album, artist)
	assert.InDelta(t, 2.33, rel.Score("rock"), 1e-9)
}

func TestMergeArtistZeroDisables(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Artist = 0
	r := testResolver(t, conf)

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{{Name: "rock"}})
	artist := genre.NewScopeMap(genre.ScopeArtist)
	r.Add(artist, 1, []genre.RawTag{{Name: "jazz"}})

	rel := r.Merge(album, artist)
	assert.Equal(t, 1, rel.Len())
	assert.Zero(t, rel.Score("jazz"))
}

func TestMergeVarious(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	album := genre.NewScopeMap(genre.ScopeAlbum)

	a := genre.NewScopeMap(genre.ScopeVarious)
	a.Tracks = 3
	r.Add(a, 1, []genre.RawTag{{Name: "jazz"}})

	b := genre.NewScopeMap(genre.ScopeVarious)
	b.Tracks = 2
	r.Add(b, 1, []genre.RawTag{{Name: "funk"}})

	rel := r.Merge(album, a, b)
	assert.InDelta(t, 1.98, rel.Score("jazz"), 1e-9)
	assert.InDelta(t, 1.32, rel.Score("funk"), 1e-9)
}

func TestTopLimitAndOrder(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.TagLimit = 4
	r := testResolver(t, conf)

	album := genre.NewScopeMap(genre.ScopeAlbum)
	var tags []genre.RawTag
	for i := range 10 {
		tags = append(tags, genre.RawTag{Name: fmt.Sprintf("tag%d", i), Count: 10 - i, HasCount: true})
	}
	r.Add(album, 1, tags)

	got := r.Top(r.Merge(album))
	require.Len(t, got, 4)
	assert.Equal(t, []string{"Tag0", "Tag1", "Tag2", "Tag3"}, got)
}

func TestTopTieFirstSeen(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{
		{Name: "zeta", Count: 5, HasCount: true},
		{Name: "acid", Count: 5, HasCount: true},
	})

	got := r.Top(r.Merge(album))
	assert.Equal(t, []string{"Zeta", "Acid"}, got)
}

func TestTopBlacklistAndFilters(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Blacklist = []string{"seen live"}
	conf.Filters = []string{"instrument", "location", "year"}
	r := testResolver(t, conf)

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{
		{Name: "seen live", Count: 100, HasCount: true},
		{Name: "guitar", Count: 90, HasCount: true},
		{Name: "german", Count: 80, HasCount: true},
		{Name: "1980s", Count: 70, HasCount: true},
		{Name: "rock", Count: 10, HasCount: true},
	})

	got := r.Top(r.Merge(album))
	assert.Equal(t, []string{"Rock"}, got)
}

func TestTopWhitelist(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Whitelist = []string{"rock", "guitar"}
	conf.Filters = []string{"instrument"}
	r := testResolver(t, conf)

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{
		{Name: "guitar", Count: 10, HasCount: true},
		{Name: "rock", Count: 5, HasCount: true},
		{Name: "jazz", Count: 5, HasCount: true},
	})

	// whitelist overrides the category filters entirely
	got := r.Top(r.Merge(album))
	assert.Equal(t, []string{"Guitar", "Rock"}, got)
}

func TestTopMinimum(t *testing.T) {
	conf := genre.DefaultConfig()
	conf.Minimum = 0.5
	r := testResolver(t, conf)

	album := genre.NewScopeMap(genre.ScopeAlbum)
	r.Add(album, 1, []genre.RawTag{
		{Name: "rock", Count: 10, HasCount: true},
		{Name: "jazz", Count: 1, HasCount: true},
	})

	got := r.Top(r.Merge(album))
	assert.Equal(t, []string{"Rock"}, got)
}

func TestTopEmpty(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())
	got := r.Top(r.Merge(genre.NewScopeMap(genre.ScopeAlbum)))
	assert.Empty(t, got)
}

func TestFormat(t *testing.T) {
	r := testResolver(t, genre.DefaultConfig())

	assert.Equal(t, "Rock", r.Format("rock"))
	assert.Equal(t, "Hip-Hop", r.Format("hip-hop"))
	assert.Equal(t, "IDM", r.Format("idm"))
	assert.Equal(t, "UK", r.Format("uk"))
	assert.Equal(t, "Nu Metal", r.Format("nu metal"))
	assert.Equal(t, "1980s", r.Format("1980s"))
	assert.Equal(t, "R&B", r.Format("r&b"))
}
