package wlg_test

import (
	"go.senan.xyz/wlg/tags/tagcommon"
)

type fakeFile struct {
	album, albumArtist, artist string
	year                       int
	mbArtistID, mbReleaseID    string
	mbReleaseGroupID           string

	genre       string
	genres      []string
	releaseType string
}

func (f *fakeFile) Album() string            { return f.album }
func (f *fakeFile) AlbumArtist() string      { return f.albumArtist }
func (f *fakeFile) Artist() string           { return f.artist }
func (f *fakeFile) Artists() []string        { return nil }
func (f *fakeFile) Year() int                { return f.year }
func (f *fakeFile) Genre() string            { return f.genre }
func (f *fakeFile) Genres() []string         { return f.genres }
func (f *fakeFile) ReleaseType() string      { return f.releaseType }
func (f *fakeFile) MBArtistID() string       { return f.mbArtistID }
func (f *fakeFile) MBReleaseID() string      { return f.mbReleaseID }
func (f *fakeFile) MBReleaseGroupID() string { return f.mbReleaseGroupID }

func (f *fakeFile) WriteGenre(v string)       { f.genre = v }
func (f *fakeFile) WriteGenres(v []string)    { f.genres = v }
func (f *fakeFile) WriteReleaseType(v string) { f.releaseType = v }

func (f *fakeFile) Close() error { return nil }

func asTagFiles(files []fakeFile) []tagcommon.File {
	out := make([]tagcommon.File, 0, len(files))
	for i := range files {
		out = append(out, &files[i])
	}
	return out
}
