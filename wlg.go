// Package wlg ties the provider clients, the response cache, the
// disambiguator and the genre resolver together into the per album
// pipeline.
package wlg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"unicode"

	"go.senan.xyz/wlg/cache"
	"go.senan.xyz/wlg/disambig"
	"go.senan.xyz/wlg/genre"
	"go.senan.xyz/wlg/originfile"
	"go.senan.xyz/wlg/provider"
	"go.senan.xyz/wlg/tags/tagcommon"
)

var ErrNoTracks = errors.New("no tracks in dir")

// Release is the metadata one album directory resolves to before any
// providers are asked.
type Release struct {
	Artist string
	Album  string
	Year   int

	MBArtistID       string
	MBReleaseID      string
	MBReleaseGroupID string

	// Various is set when no single album artist covers the tracks. The
	// artist scope is replaced by per track artist scopes then.
	Various      bool
	TrackArtists map[string]int
	NumTracks    int

	// Origin is the release's origin file when one was found. Its
	// identity confirms provider candidates during disambiguation.
	Origin *originfile.OriginFile
}

func ReadDir(tg tagcommon.Reader, dir string) ([]tagcommon.File, []string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, nil, fmt.Errorf("glob dir: %w", err)
	}
	sort.Strings(paths)

	var files []tagcommon.File
	var filePaths []string
	for _, path := range paths {
		if !tg.CanRead(path) {
			continue
		}
		file, err := tg.Read(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read track: %w", err)
		}
		files = append(files, file)
		filePaths = append(filePaths, path)
	}
	if len(files) == 0 {
		return nil, nil, ErrNoTracks
	}
	return files, filePaths, nil
}

var variousNames = map[string]struct{}{
	"various artists": {},
	"various":         {},
	"va":              {},
	"v.a.":            {},
}

// ReleaseFromFiles folds the track tags of one directory into a single
// Release. An origin file, when present, fills anything the tags left
// blank.
func ReleaseFromFiles(files []tagcommon.File, origin *originfile.OriginFile) *Release {
	var rel Release
	rel.NumTracks = len(files)
	rel.TrackArtists = map[string]int{}

	for _, f := range files {
		if rel.Album == "" {
			rel.Album = f.Album()
		}
		if rel.Artist == "" {
			rel.Artist = f.AlbumArtist()
		}
		if rel.Year == 0 {
			rel.Year = f.Year()
		}
		if rel.MBArtistID == "" {
			rel.MBArtistID = f.MBArtistID()
		}
		if rel.MBReleaseID == "" {
			rel.MBReleaseID = f.MBReleaseID()
		}
		if rel.MBReleaseGroupID == "" {
			rel.MBReleaseGroupID = f.MBReleaseGroupID()
		}
		if artist := f.Artist(); artist != "" {
			rel.TrackArtists[artist]++
		}
	}

	if _, ok := variousNames[strings.ToLower(rel.Artist)]; ok {
		rel.Artist = ""
		rel.Various = true
	}
	if rel.Artist == "" && len(rel.TrackArtists) > 1 {
		rel.Various = true
	}
	if rel.Artist == "" && !rel.Various {
		for artist := range rel.TrackArtists {
			rel.Artist = artist
		}
	}

	rel.Origin = origin
	if origin != nil {
		if rel.Album == "" {
			rel.Album = origin.Name
		}
		if rel.Artist == "" && !rel.Various {
			rel.Artist = origin.Artist
		}
		if rel.Year == 0 {
			rel.Year = origin.Year()
		}
	}
	return &rel
}

// Source is one provider with its score weight. A weight of 0 disables
// the source.
type Source struct {
	provider.Source
	Mult float64
}

type Processor struct {
	Cache    *cache.Cache
	Genre    *genre.Resolver
	Disambig *disambig.Resolver
	Sources  []Source
}

// Result carries the outcome for one album. Scopes keeps the per scope
// intermediate scores for verbose output.
type Result struct {
	Genres      []string
	ReleaseType string
	Scopes      []*genre.ScopeMap
	Merged      *genre.ReleaseMap
}

// ProcessAlbum asks every configured source for artist and album tags,
// resolves ambiguous answers, and reduces everything to the final
// genre list. Provider failures degrade to fewer tags, never to an
// error. The returned genre list may be empty.
func (p *Processor) ProcessAlbum(ctx context.Context, rel *Release) (*Result, error) {
	var res Result
	var maps []*genre.ScopeMap

	album := genre.NewScopeMap(genre.ScopeAlbum)
	p.queryScope(ctx, album, provider.Query{
		Artist:           rel.Artist,
		Album:            rel.Album,
		Year:             rel.Year,
		MBArtistID:       rel.MBArtistID,
		MBReleaseID:      rel.MBReleaseID,
		MBReleaseGroupID: rel.MBReleaseGroupID,
	}, rel.Origin, &res)
	maps = append(maps, album)

	switch {
	case rel.Various:
		for artist, tracks := range rel.TrackArtists {
			sm := genre.NewScopeMap(genre.ScopeVarious)
			sm.Tracks = tracks
			p.queryScope(ctx, sm, provider.Query{Artist: artist}, nil, &res)
			maps = append(maps, sm)
		}
	case rel.Artist != "":
		sm := genre.NewScopeMap(genre.ScopeArtist)
		p.queryScope(ctx, sm, provider.Query{
			Artist:     rel.Artist,
			Year:       rel.Year,
			MBArtistID: rel.MBArtistID,
		}, rel.Origin, &res)
		maps = append(maps, sm)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Scopes = maps
	res.Merged = p.Genre.Merge(maps...)
	res.Genres = p.Genre.Top(res.Merged)
	return &res, nil
}

func (p *Processor) queryScope(ctx context.Context, sm *genre.ScopeMap, q provider.Query, origin *originfile.OriginFile, res *Result) {
	for _, src := range p.Sources {
		if src.Mult == 0 {
			continue
		}
		results, err := p.query(ctx, src, sm.Scope, q)
		if errors.Is(err, provider.ErrUnsupported) {
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "provider error", "provider", src.Name(), "scope", sm.Scope, "err", err)
			continue
		}

		picked := p.pick(src.Name(), sm.Scope, q, origin, results)
		if picked == nil {
			continue
		}
		if sm.Scope == genre.ScopeAlbum && res.ReleaseType == "" {
			res.ReleaseType = picked.Type
		}
		p.Genre.Add(sm, src.Mult, picked.Tags)
	}
}

func (p *Processor) query(ctx context.Context, src Source, scope genre.Scope, q provider.Query) ([]provider.Result, error) {
	var key string
	switch scope {
	case genre.ScopeAlbum:
		key = cache.Key(src.Name(), string(scope), q.MBReleaseGroupID, q.MBReleaseID, q.Artist, q.Album)
	default:
		key = cache.Key(src.Name(), string(scope), q.MBArtistID, q.Artist)
	}

	var results []provider.Result
	if p.Cache.Get(key, &results) {
		return results, nil
	}

	var err error
	switch scope {
	case genre.ScopeAlbum:
		results, err = src.AlbumData(ctx, q)
	default:
		results, err = src.ArtistData(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if err := p.Cache.Put(key, results); err != nil {
		slog.WarnContext(ctx, "cache put", "provider", src.Name(), "err", err)
	}
	return results, nil
}

// pick settles on one of a source's answers. A single answer stands as
// is, several go through the disambiguator. An origin file's identity
// marks matching candidates as confirmed before that. Skipping means
// the source contributes nothing for this scope.
func (p *Processor) pick(source string, scope genre.Scope, q provider.Query, origin *originfile.OriginFile, results []provider.Result) *provider.Result {
	switch len(results) {
	case 0:
		return nil
	case 1:
		return &results[0]
	}

	dq := disambig.Query{Year: q.Year}
	var memoKey string
	var confirmed []string
	if scope == genre.ScopeAlbum {
		dq.ID = q.MBReleaseGroupID
		dq.Text = strings.TrimSpace(q.Artist + " " + q.Album)
		memoKey = source + "|" + q.Artist + "|" + q.Album
		if origin != nil && origin.Name != "" {
			confirmed = []string{
				foldName(origin.Name),
				foldName(origin.Artist + " " + origin.Name),
			}
		}
	} else {
		dq.ID = q.MBArtistID
		dq.Text = q.Artist
		memoKey = source + "|" + q.Artist
		if origin != nil && origin.Artist != "" {
			confirmed = []string{foldName(origin.Artist)}
		}
	}

	cands := make([]disambig.Candidate, 0, len(results))
	for _, r := range results {
		cand := disambig.Candidate{
			ID: r.ID, Title: r.Title, Info: r.Info, Year: r.Year, Type: r.Type,
		}
		if folded := foldName(r.Title); slices.Contains(confirmed, folded) {
			cand.Confirmed = true
		}
		cands = append(cands, cand)
	}

	picked, state := p.Disambig.Resolve(memoKey, dq, cands)
	if picked == nil {
		slog.Debug("no candidate picked", "provider", source, "scope", scope, "state", state)
		return nil
	}
	for i := range results {
		if results[i].ID == picked.ID && results[i].Title == picked.Title {
			return &results[i]
		}
	}
	return nil
}

// foldName reduces a title to lowercase letters and digits so origin
// file names match provider titles despite punctuation and spacing.
func foldName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
