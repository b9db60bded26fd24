package buildstamp

import (
	"slices"
	"strings"
)

// ignoreSeparators are the characters that separate ignore list entries.
const ignoreSeparators = "\n\r\f"

// IgnoreSet is a set of bare file names excluded from the timestamp.
//
// Matching is by name only: an entry named "pom.xml" ignores every pom.xml
// in the tree, at any depth.
type IgnoreSet map[string]struct{}

// ParseIgnoreList builds an IgnoreSet from a raw multi-line list.
//
// The list is split on newline, carriage return and form feed. Each token is
// trimmed of surrounding whitespace; tokens left empty are dropped. An empty
// raw string yields an empty set.
func ParseIgnoreList(raw string) IgnoreSet {
	set := make(IgnoreSet)
	tokens := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(ignoreSeparators, r)
	})
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Contains reports whether name is ignored. A nil set ignores nothing.
func (s IgnoreSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of distinct names in the set.
func (s IgnoreSet) Len() int {
	return len(s)
}

// Names returns the ignored names in sorted order.
func (s IgnoreSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
