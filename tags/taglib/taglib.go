// Package taglib implements the tag file boundary with taglib, via
// audiotags.
package taglib

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/sentriz/audiotags"
	"go.senan.xyz/wlg/tags/tagcommon"
)

var ErrWrite = errors.New("error writing tags")

type TagLib struct{}

func (TagLib) CanRead(absPath string) bool {
	switch ext := strings.ToLower(filepath.Ext(absPath)); ext {
	case ".mp3", ".flac", ".aac", ".m4a", ".m4b", ".ogg", ".opus", ".wma", ".wav", ".wv":
		return true
	}
	return false
}

func (TagLib) Read(absPath string) (tagcommon.File, error) {
	f, err := audiotags.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	raw := f.ReadTags()
	return &File{raw: raw, file: f}, nil
}

type File struct {
	raw      map[string][]string
	file     *audiotags.File
	didWrite bool
}

// https://picard-docs.musicbrainz.org/downloads/MusicBrainz_Picard_Tag_Map.html

func (f *File) Album() string       { return first(find(f.raw, "album")) }
func (f *File) AlbumArtist() string { return first(find(f.raw, "albumartist", "album artist")) }
func (f *File) Artist() string      { return first(find(f.raw, "artist")) }
func (f *File) Artists() []string   { return find(f.raw, "artists") }
func (f *File) Year() int           { return anyYear(first(find(f.raw, "date", "year", "originaldate"))) }
func (f *File) Genre() string       { return first(find(f.raw, "genre")) }
func (f *File) Genres() []string    { return find(f.raw, "genres") }
func (f *File) ReleaseType() string { return first(find(f.raw, "releasetype", "musicbrainz_albumtype")) }

func (f *File) MBArtistID() string       { return first(find(f.raw, "musicbrainz_artistid")) }
func (f *File) MBReleaseID() string      { return first(find(f.raw, "musicbrainz_albumid")) }
func (f *File) MBReleaseGroupID() string { return first(find(f.raw, "musicbrainz_releasegroupid")) }

func (f *File) WriteGenre(v string)       { f.set("genre", v) }
func (f *File) WriteGenres(v []string)    { f.set("genres", v...) }
func (f *File) WriteReleaseType(v string) { f.set("releasetype", v) }

func (f *File) set(k string, vs ...string) {
	f.didWrite = true
	f.raw[k] = vs
}

func (f *File) Close() error {
	defer f.file.Close()
	if f.didWrite {
		if !f.file.WriteTags(f.raw) {
			return ErrWrite
		}
	}
	return nil
}

func find(raw map[string][]string, keys ...string) []string {
	for _, k := range keys {
		if vs, ok := raw[k]; ok && len(vs) > 0 {
			return vs
		}
	}
	return nil
}

func first[T comparable](is []T) T {
	var z T
	for _, i := range is {
		if i != z {
			return i
		}
	}
	return z
}

func anyYear(str string) int {
	if str == "" {
		return 0
	}
	t, err := dateparse.ParseAny(str)
	if err != nil {
		return 0
	}
	return t.Year()
}
