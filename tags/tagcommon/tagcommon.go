package tagcommon

import "errors"

var ErrUnsupported = errors.New("filetype unsupported")

type Reader interface {
	CanRead(absPath string) bool
	Read(absPath string) (File, error)
}

// File is one audio file's metadata, read up front and written back on
// Close if anything changed.
type File interface {
	Album() string
	AlbumArtist() string
	Artist() string
	Artists() []string
	Year() int
	Genre() string
	Genres() []string
	ReleaseType() string

	MBArtistID() string
	MBReleaseID() string
	MBReleaseGroupID() string

	WriteGenre(v string)
	WriteGenres(v []string)
	WriteReleaseType(v string)

	Close() error
}
