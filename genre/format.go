package genre

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var decadeWord = regexp.MustCompile(`^([0-9]{2}){1,2}s$`)

// Format renders a canonical name for output. Title case per word,
// short words and listed acronyms upper cased, decade tags kept lower.
func (r *Resolver) Format(name string) string {
	caser := cases.Title(language.English)
	words := strings.Split(name, " ")
	for i, w := range words {
		switch {
		case decadeWord.MatchString(w):
		case len(w) <= 2 && w != "nu":
			words[i] = strings.ToUpper(w)
		case r.rules.IsUpper(w):
			words[i] = strings.ToUpper(w)
		default:
			words[i] = caser.String(w)
		}
	}
	return strings.Join(words, " ")
}
