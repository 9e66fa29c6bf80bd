// Package originfile reads gazelle-origin yaml files found next to an
// album's tracks. They carry trusted identity hints from the place the
// album actually came from, which beats guessing from tags.
package originfile

import (
	"fmt"
	"os"

	"go.senan.xyz/wlg/fileutil"
	"gopkg.in/yaml.v2"
)

// https://github.com/x1ppy/gazelle-origin

const dirPat = "origin.y*ml"

func Find(dir string) (*OriginFile, error) {
	matches, err := fileutil.GlobDir(dir, dirPat)
	if err != nil {
		return nil, fmt.Errorf("glob for origin file: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	res, err := Parse(matches[0])
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return res, nil
}

func Parse(path string) (*OriginFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var res OriginFile
	if err := yaml.NewDecoder(f).Decode(&res); err != nil {
		return nil, fmt.Errorf("parse origin file: %w", err)
	}
	return &res, nil
}

type OriginFile struct {
	Artist       string `yaml:"Artist"`
	Name         string `yaml:"Name"`
	EditionYear  int    `yaml:"Edition year"`
	OriginalYear int    `yaml:"Original year"`
	RecordLabel  string `yaml:"Record label"`
	Media        string `yaml:"Media"`
	Permalink    string `yaml:"Permalink"`
}

// Year prefers the original release year over the edition's.
func (o *OriginFile) Year() int {
	if o.OriginalYear != 0 {
		return o.OriginalYear
	}
	return o.EditionYear
}

func (o *OriginFile) String() string {
	return fmt.Sprintf("%s - %s (%d) [%s]", o.Artist, o.Name, o.Year(), o.Media)
}
