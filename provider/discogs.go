package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.senan.xyz/wlg/clientutil"
	"go.senan.xyz/wlg/genre"
)

const discogsBaseURL = "https://api.discogs.com/"

// Discogs returns count less tags from the discogs database search.
// Styles and genres of a master release both count, styles first since
// they are the more specific of the two. Artist queries aren't
// supported, discogs has no artist level genre data.
type Discogs struct {
	BaseURL   string
	Token     string
	RateLimit time.Duration

	initOnce   sync.Once
	HTTPClient *http.Client
}

func (d *Discogs) Name() string { return "discogs" }

func (d *Discogs) ArtistData(ctx context.Context, q Query) ([]Result, error) {
	return nil, ErrUnsupported
}

func (d *Discogs) AlbumData(ctx context.Context, q Query) ([]Result, error) {
	if q.Artist == "" || q.Album == "" {
		return nil, ErrUnsupported
	}

	d.initOnce.Do(func() {
		if d.BaseURL == "" {
			d.BaseURL = discogsBaseURL
		}
		d.HTTPClient = clientutil.WrapClient(d.HTTPClient, clientutil.Chain(
			clientutil.WithCache(),
			clientutil.WithRateLimit(d.RateLimit),
			clientutil.WithLogging(),
		))
	})

	params := url.Values{}
	params.Set("type", "master")
	params.Set("artist", SearchStr(q.Artist))
	params.Set("release_title", SearchStr(q.Album))

	u, _ := url.Parse(joinPath(d.BaseURL, "database", "search"))
	u.RawQuery = params.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if d.Token != "" {
		req.Header.Set("Authorization", "Discogs token="+d.Token)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discogs returned non 2xx: %w", StatusError(resp.StatusCode))
	}

	var sr struct {
		Results []struct {
			ID    int      `json:"id"`
			Title string   `json:"title"`
			Year  string   `json:"year"`
			Genre []string `json:"genre"`
			Style []string `json:"style"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var results []Result
	for _, r := range sr.Results {
		var tags []genre.RawTag
		for _, name := range append(r.Style, r.Genre...) {
			tags = append(tags, genre.RawTag{Name: name})
		}
		year, _ := strconv.Atoi(r.Year)
		results = append(results, Result{
			ID:    strconv.Itoa(r.ID),
			Title: r.Title,
			Info:  strings.Join(r.Style, ", "),
			Year:  year,
			Tags:  tags,
		})
	}
	return results, nil
}
