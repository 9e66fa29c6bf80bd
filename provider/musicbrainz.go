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

const (
	musicbrainzBaseURL  = "https://musicbrainz.org/ws/2/"
	musicbrainzMinScore = 90
)

// MusicBrainz returns count based tags from the musicbrainz search
// API. Searches can match several artists or release groups, so each
// match comes back as its own candidate for disambiguation.
type MusicBrainz struct {
	BaseURL   string
	UserAgent string
	RateLimit time.Duration

	initOnce   sync.Once
	HTTPClient *http.Client
}

func (m *MusicBrainz) Name() string { return "musicbrainz" }

func (m *MusicBrainz) request(ctx context.Context, path string, query string, dest any) error {
	m.initOnce.Do(func() {
		if m.BaseURL == "" {
			m.BaseURL = musicbrainzBaseURL
		}
		m.HTTPClient = clientutil.WrapClient(m.HTTPClient, clientutil.Chain(
			clientutil.WithCache(),
			clientutil.WithUserAgent(m.UserAgent),
			clientutil.WithRateLimit(m.RateLimit),
			clientutil.WithLogging(),
		))
	})

	params := url.Values{}
	params.Set("fmt", "json")
	params.Set("query", query)

	u, _ := url.Parse(joinPath(m.BaseURL, path))
	u.RawQuery = params.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("musicbrainz returned non 2xx: %w", StatusError(resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type mbTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func mbTags(in []mbTag) []genre.RawTag {
	var tags []genre.RawTag
	for _, t := range in {
		tags = append(tags, genre.RawTag{Name: t.Name, Count: t.Count, HasCount: true})
	}
	return tags
}

func mbYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, _ := strconv.Atoi(date[:4])
	return y
}

func (m *MusicBrainz) ArtistData(ctx context.Context, q Query) ([]Result, error) {
	var query string
	switch {
	case q.MBArtistID != "":
		query = fmt.Sprintf("arid:%q", q.MBArtistID)
	case q.Artist != "":
		query = fmt.Sprintf("artist:%q", SearchStr(q.Artist))
	default:
		return nil, ErrUnsupported
	}

	var sr struct {
		Artists []struct {
			ID       string  `json:"id"`
			Name     string  `json:"name"`
			Type     string  `json:"type"`
			Country  string  `json:"country"`
			Score    int     `json:"score"`
			Tags     []mbTag `json:"tags"`
			LifeSpan struct {
				Begin string `json:"begin"`
			} `json:"life-span"`
		} `json:"artists"`
	}
	if err := m.request(ctx, "artist", query, &sr); err != nil {
		return nil, fmt.Errorf("search artist: %w", err)
	}

	var results []Result
	for _, a := range sr.Artists {
		if a.Score < musicbrainzMinScore {
			continue
		}
		info := strings.ToLower(strings.TrimSpace(strings.Join(
			filterEmpty(a.Type, a.Country), ", ")))
		results = append(results, Result{
			ID:    a.ID,
			Title: a.Name,
			Info:  info,
			Year:  mbYear(a.LifeSpan.Begin),
			Tags:  mbTags(a.Tags),
		})
	}
	return results, nil
}

func (m *MusicBrainz) AlbumData(ctx context.Context, q Query) ([]Result, error) {
	var query string
	switch {
	case q.MBReleaseGroupID != "":
		query = fmt.Sprintf("rgid:%q", q.MBReleaseGroupID)
	case q.MBReleaseID != "":
		query = fmt.Sprintf("reid:%q", q.MBReleaseID)
	case q.Album != "":
		query = fmt.Sprintf("releasegroup:%q", SearchStr(q.Album))
		if q.Artist != "" {
			query += fmt.Sprintf(" AND artist:%q", SearchStr(q.Artist))
		}
	default:
		return nil, ErrUnsupported
	}

	var sr struct {
		ReleaseGroups []struct {
			ID               string  `json:"id"`
			Title            string  `json:"title"`
			PrimaryType      string  `json:"primary-type"`
			FirstReleaseDate string  `json:"first-release-date"`
			Score            int     `json:"score"`
			Tags             []mbTag `json:"tags"`
			ArtistCredit     []struct {
				Name string `json:"name"`
			} `json:"artist-credit"`
		} `json:"release-groups"`
	}
	if err := m.request(ctx, "release-group", query, &sr); err != nil {
		return nil, fmt.Errorf("search release group: %w", err)
	}

	var results []Result
	for _, rg := range sr.ReleaseGroups {
		if rg.Score < musicbrainzMinScore {
			continue
		}
		title := rg.Title
		if len(rg.ArtistCredit) > 0 {
			title = rg.ArtistCredit[0].Name + " - " + title
		}
		results = append(results, Result{
			ID:    rg.ID,
			Title: title,
			Info:  strings.ToLower(rg.PrimaryType),
			Year:  mbYear(rg.FirstReleaseDate),
			Type:  strings.ToLower(rg.PrimaryType),
			Tags:  mbTags(rg.Tags),
		})
	}
	return results, nil
}

func filterEmpty(in ...string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
