package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.senan.xyz/wlg/clientutil"
	"go.senan.xyz/wlg/genre"
)

const lastfmBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFM returns count based tags from the last.fm web API. Tags below
// MinCount are dropped, the long tail there is mostly noise.
type LastFM struct {
	BaseURL   string
	APIKey    string
	RateLimit time.Duration
	MinCount  int

	initOnce   sync.Once
	HTTPClient *http.Client
}

func (l *LastFM) Name() string { return "lastfm" }

func (l *LastFM) request(ctx context.Context, params url.Values, dest any) error {
	l.initOnce.Do(func() {
		if l.BaseURL == "" {
			l.BaseURL = lastfmBaseURL
		}
		l.HTTPClient = clientutil.WrapClient(l.HTTPClient, clientutil.Chain(
			clientutil.WithCache(),
			clientutil.WithRateLimit(l.RateLimit),
			clientutil.WithLogging(),
		))
	})

	params.Set("api_key", l.APIKey)
	params.Set("format", "json")

	u, _ := url.Parse(l.BaseURL)
	u.RawQuery = params.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("lastfm returned non 2xx: %w", StatusError(resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type lastfmTopTags struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

func (l *LastFM) topTags(ctx context.Context, params url.Values) ([]Result, error) {
	var tt lastfmTopTags
	if err := l.request(ctx, params, &tt); err != nil {
		return nil, err
	}
	// error 6 is "not found", which is no result rather than a failure
	if tt.Error == 6 {
		return nil, nil
	}
	if tt.Error != 0 {
		return nil, fmt.Errorf("lastfm error %d: %s", tt.Error, tt.Message)
	}

	var tags []genre.RawTag
	for _, t := range tt.TopTags.Tag {
		if t.Count < l.MinCount {
			continue
		}
		tags = append(tags, genre.RawTag{Name: t.Name, Count: t.Count, HasCount: true})
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return []Result{{Tags: tags}}, nil
}

func (l *LastFM) ArtistData(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("method", "artist.gettoptags")
	switch {
	case q.MBArtistID != "":
		params.Set("mbid", q.MBArtistID)
	case q.Artist != "":
		params.Set("artist", SearchStr(q.Artist))
	default:
		return nil, ErrUnsupported
	}
	return l.topTags(ctx, params)
}

func (l *LastFM) AlbumData(ctx context.Context, q Query) ([]Result, error) {
	params := url.Values{}
	params.Set("method", "album.gettoptags")
	switch {
	case q.MBReleaseID != "":
		params.Set("mbid", q.MBReleaseID)
	case q.Artist != "" && q.Album != "":
		params.Set("artist", SearchStr(q.Artist))
		params.Set("album", SearchStr(q.Album))
	default:
		return nil, ErrUnsupported
	}
	return l.topTags(ctx, params)
}
