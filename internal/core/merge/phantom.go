package merge

import (
	"sort"
	"strings"
)

// Calibration-placeholder names that bleed from prompt examples into oracle
// output. Matching is case-, punctuation-, and word-order-insensitive, so
// one entry covers both "John Smith" and "Smith, John".
var phantomNames = buildPhantomSet([]string{
	"john smith", "john doe", "jane smith", "jane doe",
	"alice johnson", "michael johnson", "linda johnson",
	"duarte milian", "michael boyce", "glenn watson",
})

var phantomSubstrings = []string{"placeholder", "test person"}

// isPhantom reports whether a normalized employee name is a known
// calibration artifact and must be dropped regardless of quality score.
func isPhantom(name string) bool {
	lowered := strings.ToLower(name)
	for _, s := range phantomSubstrings {
		if strings.Contains(lowered, s) {
			return true
		}
	}
	return phantomNames[phantomKey(name)]
}

// phantomKey lowercases, strips punctuation, and sorts the name tokens so
// "Smith, John" and "john smith" share a key.
func phantomKey(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '.':
			return ' '
		}
		return r
	}, strings.ToLower(name))
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func buildPhantomSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[phantomKey(n)] = true
	}
	return set
}
