// Package rules holds the static tag rule tables. They are parsed once at
// startup from a sectioned plain text file and read only after that.
package rules

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
)

//go:embed rules.txt
var defaultRules string

// The sections a usable rules file must have.
var requiredSections = []string{"alias", "regex", "uppercase", "prefix"}

type Substitution struct {
	Pattern *regexp.Regexp
	Replace string
}

type Rules struct {
	aliases   map[string]string
	regexes   []Substitution
	upper     map[string]struct{}
	prefixes  map[string]struct{}
	dontsplit map[string]struct{}
	filters   map[string]map[string]struct{}
}

var decadeExpr = regexp.MustCompile(`^([0-9]{2}){1,2}s$`)

var defaultOnce = sync.OnceValue(func() *Rules {
	r, err := Parse(strings.NewReader(defaultRules))
	if err != nil {
		panic(fmt.Errorf("parse embedded rules: %w", err))
	}
	return r
})

// Default returns the rules compiled from the embedded rules file.
func Default() *Rules {
	return defaultOnce()
}

func Open(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Rules, error) {
	rules := &Rules{
		aliases:   map[string]string{},
		upper:     map[string]struct{}{},
		prefixes:  map[string]struct{}{},
		dontsplit: map[string]struct{}{},
		filters:   map[string]map[string]struct{}{},
	}

	var section string
	seen := map[string]struct{}{}

	sc := bufio.NewScanner(r)
	for lineNum := 1; sc.Scan(); lineNum++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			seen[section] = struct{}{}
			continue
		}

		key, value, hasValue := strings.Cut(line, "=")
		key, value = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)

		switch {
		case section == "alias":
			if !hasValue {
				return nil, fmt.Errorf("line %d: alias without replacement", lineNum)
			}
			rules.aliases[key] = strings.ToLower(value)
		case section == "regex":
			if !hasValue {
				return nil, fmt.Errorf("line %d: regex without replacement", lineNum)
			}
			pattern, err := regexp.Compile("(?i)" + key)
			if err != nil {
				return nil, fmt.Errorf("line %d: compile pattern: %w", lineNum, err)
			}
			rules.regexes = append(rules.regexes, Substitution{Pattern: pattern, Replace: strings.ToLower(value)})
		case section == "uppercase":
			rules.upper[key] = struct{}{}
		case section == "prefix":
			rules.prefixes[key] = struct{}{}
		case section == "dontsplit":
			rules.dontsplit[key] = struct{}{}
		case strings.HasPrefix(section, "filter_"):
			category := strings.TrimPrefix(section, "filter_")
			if rules.filters[category] == nil {
				rules.filters[category] = map[string]struct{}{}
			}
			rules.filters[category][key] = struct{}{}
		case section == "":
			return nil, fmt.Errorf("line %d: entry before any section", lineNum)
		default:
			return nil, fmt.Errorf("line %d: unknown section %q", lineNum, section)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}

	for _, s := range requiredSections {
		if _, ok := seen[s]; !ok {
			return nil, fmt.Errorf("rules file has no [%s] section", s)
		}
	}
	return rules, nil
}

// Alias returns the canonical form a tag name is an exact alias of.
func (r *Rules) Alias(name string) (string, bool) {
	alias, ok := r.aliases[name]
	return alias, ok
}

// Substitute runs every regex rule over name once, in file order.
func (r *Rules) Substitute(name string) string {
	for _, sub := range r.regexes {
		name = sub.Pattern.ReplaceAllString(name, sub.Replace)
	}
	return name
}

func (r *Rules) IsUpper(word string) bool {
	_, ok := r.upper[word]
	return ok
}

func (r *Rules) IsPrefix(word string) bool {
	_, ok := r.prefixes[word]
	return ok
}

func (r *Rules) DontSplit(name string) bool {
	_, ok := r.dontsplit[name]
	return ok
}

// Filtered reports whether name falls in any of the given filter
// categories. The "year" category matches bare decade tags like "1980s".
func (r *Rules) Filtered(categories []string, name string) bool {
	for _, cat := range categories {
		if cat == "year" && decadeExpr.MatchString(name) {
			return true
		}
		if _, ok := r.filters[cat][name]; ok {
			return true
		}
	}
	return false
}
