// Package roles links hand-written role annotations to parsed matches and
// folds their role strings into player rows.
package roles

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pable/go-clan-metrics/internal/model"
)

// NormalizeMapName lower-cases a map name and drops whitespace and
// underscores, so "Troubled Waters" and "troubled_waters" share a key.
func NormalizeMapName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// DateMapKey is the composite (local date, normalized map) key.
func DateMapKey(date, mapName string) string {
	return strings.TrimSpace(date) + "|" + NormalizeMapName(mapName)
}

// BuildDateIndex groups matches by local date. Undated matches are left out.
func BuildDateIndex(matches []model.Match) map[string][]model.Match {
	idx := make(map[string][]model.Match)
	for _, m := range matches {
		if m.HasDate() {
			idx[m.DateLocal] = append(idx[m.DateLocal], m)
		}
	}
	return idx
}

// BuildDateMapIndex groups matches by DateMapKey. Undated matches are left out.
func BuildDateMapIndex(matches []model.Match) map[string][]model.Match {
	idx := make(map[string][]model.Match)
	for _, m := range matches {
		if m.HasDate() {
			k := DateMapKey(m.DateLocal, m.Map)
			idx[k] = append(idx[k], m)
		}
	}
	return idx
}

// LinkReport partitions the annotations Link looked at.
type LinkReport struct {
	Linked     []model.LinkedRole
	Orphaned   []model.UnlinkedRole
	Unresolved []model.UnlinkedRole
}

type candidate struct {
	matchID string
	side    model.Side // our side, empty when both orderings fit
}

// Link sets MatchID (and WBSide when unset) on every annotation that matches
// exactly one parsed match by date, map and score. It modifies annotations in
// place, so callers pass a copy. Annotations that already carry a MatchID are
// skipped; more than one candidate is reported as ambiguous, never guessed.
func Link(annotations []model.RoleAnnotation, matches []model.Match) LinkReport {
	byDate := BuildDateIndex(matches)
	byDateMap := BuildDateMapIndex(matches)

	var rep LinkReport
	for i := range annotations {
		a := &annotations[i]
		if strings.TrimSpace(a.MatchID) != "" {
			continue
		}

		miss := model.UnlinkedRole{
			Index:     i,
			DateLocal: a.DateLocal,
			Map:       a.Map,
			ScoreWB:   string(a.ScoreWB),
			ScoreOpp:  string(a.ScoreOpp),
			Opponent:  a.Opponent,
		}

		wb, errWB := a.ScoreWB.Int()
		opp, errOpp := a.ScoreOpp.Int()
		if errWB != nil || errOpp != nil {
			miss.Reason = model.LinkInvalidScore
			rep.Unresolved = append(rep.Unresolved, miss)
			continue
		}

		if len(byDate[strings.TrimSpace(a.DateLocal)]) == 0 {
			miss.Reason, miss.Detail = model.LinkOrphaned, "no_date"
			rep.Orphaned = append(rep.Orphaned, miss)
			continue
		}
		onMap := byDateMap[DateMapKey(a.DateLocal, a.Map)]
		if len(onMap) == 0 {
			miss.Reason, miss.Detail = model.LinkOrphaned, "no_map"
			rep.Orphaned = append(rep.Orphaned, miss)
			continue
		}

		cands := scoreCandidates(onMap, wb, opp)
		switch len(cands) {
		case 1:
			a.MatchID = cands[0].matchID
			if a.WBSide == "" {
				a.WBSide = cands[0].side
			}
			rep.Linked = append(rep.Linked, model.LinkedRole{Index: i, MatchID: a.MatchID, WBSide: a.WBSide})
		case 0:
			miss.Reason = model.LinkNoMatch
			rep.Unresolved = append(rep.Unresolved, miss)
		default:
			miss.Reason = model.LinkAmbiguous
			for _, c := range cands {
				miss.Candidates = append(miss.Candidates, c.matchID)
			}
			sort.Strings(miss.Candidates)
			rep.Unresolved = append(rep.Unresolved, miss)
		}
	}
	return rep
}

// scoreCandidates keeps matches whose score equals (wb, opp) with our side on
// either colour.
func scoreCandidates(matches []model.Match, wb, opp int) []candidate {
	var out []candidate
	for _, m := range matches {
		asRed := m.ScoreRed == wb && m.ScoreBlue == opp
		asBlue := m.ScoreBlue == wb && m.ScoreRed == opp
		switch {
		case asRed && asBlue:
			out = append(out, candidate{matchID: m.MatchID})
		case asRed:
			out = append(out, candidate{matchID: m.MatchID, side: model.SideRed})
		case asBlue:
			out = append(out, candidate{matchID: m.MatchID, side: model.SideBlue})
		}
	}
	return out
}

// Clone deep-copies annotations so Link can run on the copy.
func Clone(annotations []model.RoleAnnotation) []model.RoleAnnotation {
	if annotations == nil {
		return nil
	}
	out := make([]model.RoleAnnotation, len(annotations))
	copy(out, annotations)
	return out
}
