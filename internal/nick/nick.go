// Package nick strips clan-tag decoration from in-game nicknames.
package nick

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type step struct {
	sep string         // literal separator: drop everything up to its last occurrence
	re  *regexp.Regexp // general pattern: removed wherever it matches
}

// Normalizer applies an ordered list of clan-tag patterns. It is immutable
// after New and safe to share.
type Normalizer struct {
	steps   []step
	invalid []string
}

// New compiles patterns case-insensitively, in order. Patterns that fail to
// compile are skipped and reported by Invalid.
func New(patterns []string) *Normalizer {
	n := &Normalizer{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if sep, ok := literalSeparator(p); ok {
			n.steps = append(n.steps, step{sep: sep})
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			n.invalid = append(n.invalid, p)
			continue
		}
		n.steps = append(n.steps, step{re: re})
	}
	return n
}

// Normalize returns raw with every tag pattern applied, trimmed. A nil or
// empty Normalizer only trims.
func (n *Normalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if n == nil {
		return s
	}
	for _, st := range n.steps {
		if st.sep != "" {
			if i := strings.LastIndex(s, st.sep); i >= 0 {
				s = s[i+len(st.sep):]
			}
		} else {
			s = st.re.ReplaceAllString(s, "")
		}
		s = strings.TrimSpace(s)
	}
	return s
}

// Invalid lists the patterns New could not compile.
func (n *Normalizer) Invalid() []string {
	if n == nil {
		return nil
	}
	return append([]string(nil), n.invalid...)
}

// literalSeparator recognises a pattern made of one punctuation character,
// optionally regex-escaped ("|" or `\|`).
func literalSeparator(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, `\`) && utf8.RuneCountInString(p) == 2 {
		p = p[1:]
	}
	if utf8.RuneCountInString(p) != 1 {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(p)
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return "", false
	}
	return p, true
}
