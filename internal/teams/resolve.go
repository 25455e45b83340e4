// Package teams infers which team each side of a match fielded.
package teams

import (
	"strings"

	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/registry"
)

// Eras names the two registry affiliation columns and the date splitting them.
type Eras struct {
	ScopeDate string // YYYY-MM-DD; dates on or after it belong to Current
	Current   string
	Previous  string
}

// ErasFrom reads the era settings of a (defaulted) team config.
func ErasFrom(cfg *model.TeamConfig) Eras {
	return Eras{ScopeDate: cfg.ScopeDate, Current: cfg.EraCurrent, Previous: cfg.EraPrevious}
}

// Resolve returns a copy of rows with TeamMembership set. A row whose match
// has no local date is never given a team and is flagged DateInvalid.
func Resolve(rows []model.PlayerRow, matches []model.Match, idx *registry.Index, eras Eras) []model.PlayerRow {
	dates := make(map[string]string, len(matches))
	for _, m := range matches {
		dates[m.MatchID] = m.DateLocal
	}

	out := make([]model.PlayerRow, len(rows))
	for i, r := range rows {
		date := dates[r.MatchID]
		r.DateInvalid = date == ""
		r.TeamMembership = model.Unaffiliated
		if !r.DateInvalid {
			if e, ok := idx.Entry(r.Canonical); ok {
				r.TeamMembership = Membership(e, date, eras)
			}
		}
		out[i] = r
	}
	return out
}

// Membership picks the affiliation for a dated appearance: the era the date
// falls in first, then the other era, then UNAFFILIATED.
func Membership(e model.RegistryEntry, date string, eras Eras) string {
	preferred, fallback := eras.Previous, eras.Current
	if date >= eras.ScopeDate {
		preferred, fallback = eras.Current, eras.Previous
	}
	for _, era := range []string{preferred, fallback} {
		if team := e.TeamFor(era); team != "" {
			return canonicalTeam(team)
		}
	}
	return model.Unaffiliated
}

func canonicalTeam(team string) string {
	switch {
	case team == "?", fold.Equal(team, model.Ambiguous):
		return model.Ambiguous
	case fold.Equal(team, model.Unaffiliated):
		return model.Unaffiliated
	default:
		return strings.TrimSpace(team)
	}
}
