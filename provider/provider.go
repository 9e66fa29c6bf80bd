// Package provider fetches raw genre tag lists from the metadata
// sites. Every source hands back already-retrieved raw tags, scoring
// and normalisation happen elsewhere.
package provider

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rainycape/unidecode"
	"go.senan.xyz/wlg/genre"
)

var ErrUnsupported = errors.New("query type unsupported")

type Query struct {
	Artist string
	Album  string
	Year   int

	MBArtistID       string
	MBReleaseID      string
	MBReleaseGroupID string
}

// Result is one candidate answer from a source. Sources with no notion
// of multiple answers return a single Result holding only tags.
type Result struct {
	ID    string         `json:"id,omitempty"`
	Title string         `json:"title,omitempty"`
	Info  string         `json:"info,omitempty"`
	Year  int            `json:"year,omitempty"`
	Type  string         `json:"type,omitempty"`
	Tags  []genre.RawTag `json:"tags,omitempty"`
}

type Source interface {
	Name() string
	ArtistData(ctx context.Context, q Query) ([]Result, error)
	AlbumData(ctx context.Context, q Query) ([]Result, error)
}

var searchStrips = []*regexp.Regexp{
	regexp.MustCompile(`\(.*\)$`),
	regexp.MustCompile(`\[.*\]`),
	regexp.MustCompile(`{.*}`),
	regexp.MustCompile(`- .* -`),
	regexp.MustCompile(`'.*'`),
	regexp.MustCompile(`".*"`),
	regexp.MustCompile(` (- )?(album|single|ep|official remix(es)?|soundtrack|ost)$`),
	regexp.MustCompile(`[ (]f(ea)?t(\.|uring)? .*`),
	regexp.MustCompile(`vol(\.|ume)? `),
	regexp.MustCompile(`[!?/:,]`),
}

// SearchStr cleans a name up for use in a search query, dropping
// edition suffixes, featuring credits and other noise.
func SearchStr(s string) string {
	s = strings.ToLower(unidecode.Unidecode(s))
	for _, pat := range searchStrips {
		if sub := strings.TrimSpace(pat.ReplaceAllString(s, " ")); sub != "" {
			s = sub
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
