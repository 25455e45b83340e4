package teams

import (
	"github.com/pable/go-clan-metrics/internal/model"
)

// ClassifySides returns a copy of matches with TeamRed/TeamBlue and
// ClassRed/ClassBlue filled from the rows' resolved memberships.
func ClassifySides(matches []model.Match, rows []model.PlayerRow) []model.Match {
	type sideKey struct {
		matchID string
		side    model.Side
	}
	members := make(map[sideKey][]string)
	for _, r := range rows {
		if r.Side != model.SideRed && r.Side != model.SideBlue {
			continue
		}
		k := sideKey{r.MatchID, r.Side}
		members[k] = append(members[k], r.TeamMembership)
	}

	out := make([]model.Match, len(matches))
	for i, m := range matches {
		m.TeamRed, m.ClassRed = Classify(members[sideKey{m.MatchID, model.SideRed}])
		m.TeamBlue, m.ClassBlue = Classify(members[sideKey{m.MatchID, model.SideBlue}])
		out[i] = m
	}
	return out
}

// Classify labels one side from its players' memberships, in encounter order.
// The most common real team wins, earlier teams winning ties; it is FULL_TEAM
// when every player belongs to it, STACK_3PLUS with at least three, and MIX
// otherwise.
func Classify(memberships []string) (string, model.SideClass) {
	counts := make(map[string]int)
	var order []string
	for _, t := range memberships {
		if t == "" || t == model.Unaffiliated || t == model.Ambiguous {
			continue
		}
		if _, seen := counts[t]; !seen {
			order = append(order, t)
		}
		counts[t]++
	}
	if len(order) == 0 {
		return model.MixTeam, model.ClassMix
	}

	best, bestCount := order[0], counts[order[0]]
	for _, t := range order[1:] {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}

	switch {
	case bestCount == len(memberships):
		return best, model.ClassFullTeam
	case bestCount >= 3:
		return best, model.ClassStack3
	default:
		return model.MixTeam, model.ClassMix
	}
}
