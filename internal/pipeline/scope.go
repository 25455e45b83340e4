package pipeline

import (
	"sort"

	"github.com/pable/go-clan-metrics/internal/model"
)

// Scope is the set of match ids on or after the scope date. Matches,
// player rows and team-match rows are all filtered through the same set.
type Scope struct {
	ids map[string]struct{}
}

// NewScope selects the in-scope matches. An empty date selects every match;
// otherwise undated matches are out of scope.
func NewScope(date string, matches []model.Match) Scope {
	s := Scope{ids: make(map[string]struct{}, len(matches))}
	for _, m := range matches {
		if InScope(date, m.DateLocal) {
			s.ids[m.MatchID] = struct{}{}
		}
	}
	return s
}

// InScope is the date predicate behind NewScope.
func InScope(scopeDate, matchDate string) bool {
	if scopeDate == "" {
		return true
	}
	return matchDate != "" && matchDate >= scopeDate
}

func (s Scope) Contains(matchID string) bool {
	_, ok := s.ids[matchID]
	return ok
}

// IDs returns the in-scope match ids, sorted.
func (s Scope) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s Scope) Len() int { return len(s.ids) }
