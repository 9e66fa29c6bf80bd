package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.senan.xyz/wlg/provider"
)

func TestSearchStr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nevermind", provider.SearchStr("Nevermind (Remastered)"))
	assert.Equal(t, "ok computer", provider.SearchStr("OK Computer [Collector's Edition]"))
	assert.Equal(t, "some song", provider.SearchStr("Some Song feat. Someone"))
	assert.Equal(t, "motorhead", provider.SearchStr("Mötörhead"))
	assert.Equal(t, "greatest hits 2", provider.SearchStr("Greatest Hits Vol. 2"))
}

func serve(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLastFMArtistData(t *testing.T) {
	t.Parallel()

	srv := serve(t, "application/json", `{
		"toptags": {"tag": [
			{"name": "grunge", "count": 100},
			{"name": "rock", "count": 88},
			{"name": "seen live", "count": 2}
		]}
	}`)

	lfm := provider.LastFM{BaseURL: srv.URL, MinCount: 40}
	results, err := lfm.ArtistData(context.Background(), provider.Query{Artist: "Nirvana"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Tags, 2)

	assert.Equal(t, "grunge", results[0].Tags[0].Name)
	assert.Equal(t, 100, results[0].Tags[0].Count)
	assert.True(t, results[0].Tags[0].HasCount)
}

func TestLastFMNotFound(t *testing.T) {
	t.Parallel()

	srv := serve(t, "application/json", `{"error": 6, "message": "Artist not found"}`)

	lfm := provider.LastFM{BaseURL: srv.URL}
	results, err := lfm.ArtistData(context.Background(), provider.Query{Artist: "zzzz"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLastFMUnsupported(t *testing.T) {
	t.Parallel()

	var lfm provider.LastFM
	_, err := lfm.AlbumData(context.Background(), provider.Query{Artist: "only artist"})
	assert.ErrorIs(t, err, provider.ErrUnsupported)
}

func TestMusicBrainzArtistData(t *testing.T) {
	t.Parallel()

	srv := serve(t, "application/json", `{
		"artists": [
			{
				"id": "5b11f4ce-a62d-471e-81fc-a69a8278c7da",
				"name": "Nirvana", "type": "Group", "country": "US", "score": 100,
				"life-span": {"begin": "1987-01"},
				"tags": [{"name": "grunge", "count": 12}, {"name": "rock", "count": 7}]
			},
			{"id": "x", "name": "Nirvana UK", "score": 62}
		]
	}`)

	mb := provider.MusicBrainz{BaseURL: srv.URL}
	results, err := mb.ArtistData(context.Background(), provider.Query{Artist: "Nirvana"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "5b11f4ce-a62d-471e-81fc-a69a8278c7da", results[0].ID)
	assert.Equal(t, "Nirvana", results[0].Title)
	assert.Equal(t, "group, us", results[0].Info)
	assert.Equal(t, 1987, results[0].Year)
	require.Len(t, results[0].Tags, 2)
	assert.True(t, results[0].Tags[0].HasCount)
}

func TestMusicBrainzAlbumData(t *testing.T) {
	t.Parallel()

	srv := serve(t, "application/json", `{
		"release-groups": [
			{
				"id": "1b022e01-4da6-387b-8658-8678046e4cef",
				"title": "Nevermind", "primary-type": "Album",
				"first-release-date": "1991-09-24", "score": 100,
				"artist-credit": [{"name": "Nirvana"}],
				"tags": [{"name": "grunge", "count": 9}]
			}
		]
	}`)

	mb := provider.MusicBrainz{BaseURL: srv.URL}
	results, err := mb.AlbumData(context.Background(), provider.Query{Artist: "Nirvana", Album: "Nevermind"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Nirvana - Nevermind", results[0].Title)
	assert.Equal(t, "album", results[0].Type)
	assert.Equal(t, 1991, results[0].Year)
}

func TestDiscogsAlbumData(t *testing.T) {
	t.Parallel()

	srv := serve(t, "application/json", `{
		"results": [
			{
				"id": 13814, "title": "Nirvana - Nevermind", "year": "1991",
				"genre": ["Rock"], "style": ["Grunge", "Alternative Rock"]
			}
		]
	}`)

	d := provider.Discogs{BaseURL: srv.URL}
	results, err := d.AlbumData(context.Background(), provider.Query{Artist: "Nirvana", Album: "Nevermind"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "13814", results[0].ID)
	assert.Equal(t, 1991, results[0].Year)
	require.Len(t, results[0].Tags, 3)
	assert.Equal(t, "Grunge", results[0].Tags[0].Name)
	assert.Equal(t, "Rock", results[0].Tags[2].Name)
	assert.False(t, results[0].Tags[0].HasCount)

	_, err = d.ArtistData(context.Background(), provider.Query{Artist: "Nirvana"})
	assert.ErrorIs(t, err, provider.ErrUnsupported)
}

func TestAllMusicArtistData(t *testing.T) {
	t.Parallel()

	srv := serve(t, "text/html", `<html><body>
		<div class="artist">
			<div class="name"><a href="/artist/nirvana-mn0000357406">Nirvana</a></div>
			<div class="genres">Pop/Rock, Grunge</div>
		</div>
		<div class="artist">
			<div class="name"><a href="/artist/other">Nirvana (UK)</a></div>
			<div class="genres"></div>
		</div>
	</body></html>`)

	am := provider.AllMusic{BaseURL: srv.URL}
	results, err := am.ArtistData(context.Background(), provider.Query{Artist: "Nirvana"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Nirvana", results[0].Title)
	require.Len(t, results[0].Tags, 2)
	assert.Equal(t, "Pop/Rock", results[0].Tags[0].Name)
	assert.Equal(t, "Grunge", results[0].Tags[1].Name)
	assert.False(t, results[0].Tags[0].HasCount)

	_, err = am.AlbumData(context.Background(), provider.Query{Artist: "a", Album: "b"})
	assert.ErrorIs(t, err, provider.ErrUnsupported)
}
