package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"go.senan.xyz/wlg/clientutil"
	"go.senan.xyz/wlg/genre"
)

const allmusicBaseURL = "https://www.allmusic.com"

var (
	allmusicSelectArtist = cascadia.MustCompile(`div.artist`)
	allmusicSelectName   = cascadia.MustCompile(`div.name a`)
	allmusicSelectGenres = cascadia.MustCompile(`div.genres`)
)

// AllMusic scrapes count less style tags from allmusic artist search
// pages. There is no public API, so no album level data either.
type AllMusic struct {
	BaseURL   string
	RateLimit time.Duration

	initOnce   sync.Once
	HTTPClient *http.Client
}

func (a *AllMusic) Name() string { return "allmusic" }

func (a *AllMusic) AlbumData(ctx context.Context, q Query) ([]Result, error) {
	return nil, ErrUnsupported
}

func (a *AllMusic) ArtistData(ctx context.Context, q Query) ([]Result, error) {
	if q.Artist == "" {
		return nil, ErrUnsupported
	}

	a.initOnce.Do(func() {
		if a.BaseURL == "" {
			a.BaseURL = allmusicBaseURL
		}
		a.HTTPClient = clientutil.WrapClient(a.HTTPClient, clientutil.Chain(
			clientutil.WithCache(),
			clientutil.WithRateLimit(a.RateLimit),
			clientutil.WithLogging(),
		))
	})

	u, _ := url.Parse(a.BaseURL)
	u = u.JoinPath("search", "artists", SearchStr(q.Artist))

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("req page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("allmusic returned non 2xx: %w", StatusError(resp.StatusCode))
	}

	node, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var results []Result
	for _, artist := range cascadia.QueryAll(node, allmusicSelectArtist) {
		var tags []genre.RawTag
		for _, name := range strings.Split(nodeText(cascadia.Query(artist, allmusicSelectGenres)), ",") {
			if name = strings.TrimSpace(name); name != "" {
				tags = append(tags, genre.RawTag{Name: name})
			}
		}
		if len(tags) == 0 {
			continue
		}
		results = append(results, Result{
			Title: strings.TrimSpace(nodeText(cascadia.Query(artist, allmusicSelectName))),
			Tags:  tags,
		})
	}
	return results, nil
}

func nodeText(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out.String()
}
