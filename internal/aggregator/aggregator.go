package aggregator

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
)

// KeySep joins canonical names inside pair and lineup keys.
const KeySep = "+"

// DerivePlayer fills the per-row rates from the row's own counters and its
// match duration. The row is returned by value; the input is not touched.
func DerivePlayer(row model.PlayerRow, m *model.Match) model.PlayerRow {
	durationMin := 0.0
	if m != nil {
		durationMin = m.DurationMin
	}

	row.NetDamage = row.DmgDealt - row.DmgTaken
	row.DPM = safeDiv(float64(row.DmgDealt), durationMin)
	row.KD = float64(row.Frags) / float64(max(row.Deaths, 1))
	row.FragEfficiency = safeDiv(float64(row.Frags), float64(row.Frags+row.Deaths))

	row.WeaponShare = nil
	if len(row.Damage) > 0 {
		row.WeaponShare = make(map[string]float64, len(row.Damage))
		for w, d := range row.Damage {
			row.WeaponShare[w] = safeDiv(float64(d), float64(row.DmgDealt))
		}
	}
	return row
}

// DeriveAll applies DerivePlayer to every row, looking matches up by id.
func DeriveAll(matches []model.Match, rows []model.PlayerRow) []model.PlayerRow {
	byID := indexMatches(matches)
	out := make([]model.PlayerRow, len(rows))
	for i, r := range rows {
		out[i] = DerivePlayer(r, byID[r.MatchID])
	}
	return out
}

// HHI is the Herfindahl-Hirschman index of a damage distribution: the sum of
// squared shares. It is 0 when the total is not positive.
func HHI(damages []int) float64 {
	total := 0
	for _, d := range damages {
		total += d
	}
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, d := range damages {
		s := float64(d) / float64(total)
		h += s * s
	}
	return h
}

// LineupKey is the sorted, joined set of canonical names. Input order does not
// matter.
func LineupKey(names []string) string {
	sorted := sortNames(names)
	return strings.Join(sorted, KeySep)
}

// PairKey is symmetric: PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	return LineupKey([]string{a, b})
}

func sortNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := fold.Key(out[i]), fold.Key(out[j])
		if fi != fj {
			return fi < fj
		}
		return out[i] < out[j]
	})
	return out
}

type sideKey struct {
	matchID string
	side    model.Side
}

// TeamMatchRows builds one row per (match, side) whose resolved team is
// known. MIX sides and rows without a side are skipped. Output follows match
// order, red before blue.
func TeamMatchRows(matches []model.Match, rows []model.PlayerRow) []model.TeamMatchRow {
	groups := make(map[sideKey][]model.PlayerRow)
	for _, r := range rows {
		if r.Side != model.SideRed && r.Side != model.SideBlue {
			continue
		}
		k := sideKey{r.MatchID, r.Side}
		groups[k] = append(groups[k], r)
	}

	var out []model.TeamMatchRow
	for i := range matches {
		m := &matches[i]
		for _, side := range []model.Side{model.SideRed, model.SideBlue} {
			team, class := m.Team(side)
			if team == "" || class == model.ClassMix || class == model.ClassUnknown {
				continue
			}
			group := groups[sideKey{m.MatchID, side}]
			if len(group) == 0 {
				continue
			}
			out = append(out, teamMatchRow(m, side, group))
		}
	}
	return out
}

func teamMatchRow(m *model.Match, side model.Side, group []model.PlayerRow) model.TeamMatchRow {
	team, class := m.Team(side)
	opponent, _ := m.Team(side.Opposite())
	scoreFor, scoreAgainst := m.Score(side)

	t := model.TeamMatchRow{
		MatchID:            m.MatchID,
		Side:               side,
		Team:               team,
		Class:              class,
		Opponent:           opponent,
		DateLocal:          m.DateLocal,
		Map:                m.Map,
		ScoreFor:           scoreFor,
		ScoreAgainst:       scoreAgainst,
		Result:             result(scoreFor, scoreAgainst),
		Players:            len(group),
		DurationMin:        m.DurationMin,
		QualifiesLoose:     m.QualifiesLoose,
		QualifiesStrict:    m.QualifiesStrict,
		QualifiesH2H:       m.QualifiesH2H,
		QualifiesStandings: m.QualifiesStandings,
	}

	dpmSum := 0.0
	for _, r := range group {
		t.Frags += r.Frags
		t.Deaths += r.Deaths
		t.Captures += r.Captures
		t.Defends += r.Defends
		t.DmgDealt += r.DmgDealt
		t.DmgTaken += r.DmgTaken
		dpmSum += r.DPM
	}
	t.NetDamage = t.DmgDealt - t.DmgTaken
	t.TeamDPM = safeDiv(float64(t.DmgDealt), m.DurationMin)
	t.AvgDPM = dpmSum / float64(len(group))
	t.KD = float64(t.Frags) / float64(max(t.Deaths, 1))
	t.HHI = HHI(ectolinq.Map(group, func(r model.PlayerRow) int { return r.DmgDealt }))
	t.LineupKey = LineupKey(ectolinq.Map(group, func(r model.PlayerRow) string { return r.Canonical }))
	return t
}

func result(scoreFor, scoreAgainst int) string {
	switch {
	case scoreFor > scoreAgainst:
		return "W"
	case scoreFor < scoreAgainst:
		return "L"
	default:
		return "D"
	}
}

// PairStats aggregates every 2-combination of players over the focus team's
// decided games. Net damage is the sum of the two players' own net damage.
// Sorted by games desc, then key.
func PairStats(focus string, tmrs []model.TeamMatchRow, rows []model.PlayerRow) []model.PairStat {
	groups := groupRows(rows)
	acc := make(map[string]*model.PairStat)

	for _, t := range focusGames(focus, tmrs) {
		group := groups[sideKey{t.MatchID, t.Side}]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if fold.Equal(a.Canonical, b.Canonical) {
					continue
				}
				k := PairKey(a.Canonical, b.Canonical)
				ps, ok := acc[k]
				if !ok {
					ps = &model.PairStat{PairKey: k, Players: sortNames([]string{a.Canonical, b.Canonical})}
					acc[k] = ps
				}
				ps.Games++
				if t.Won() {
					ps.Wins++
				} else {
					ps.Losses++
				}
				ps.NetDmgSum += a.NetDamage + b.NetDamage
			}
		}
	}

	out := make([]model.PairStat, 0, len(acc))
	for _, ps := range acc {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].PairKey < out[j].PairKey
	})
	return out
}

// LineupStats aggregates the focus team's decided games by exact roster.
// Strict counters only include games that qualify under the strict rule.
func LineupStats(focus string, tmrs []model.TeamMatchRow, rows []model.PlayerRow) []model.LineupStat {
	groups := groupRows(rows)
	acc := make(map[string]*model.LineupStat)

	for _, t := range focusGames(focus, tmrs) {
		ls, ok := acc[t.LineupKey]
		if !ok {
			names := ectolinq.Map(groups[sideKey{t.MatchID, t.Side}], func(r model.PlayerRow) string { return r.Canonical })
			ls = &model.LineupStat{LineupKey: t.LineupKey, Players: sortNames(names)}
			acc[t.LineupKey] = ls
		}
		ls.Games++
		ls.NetDmgSum += t.NetDamage
		won := t.Won()
		if won {
			ls.Wins++
		} else {
			ls.Losses++
		}
		if t.QualifiesStrict {
			ls.StrictGames++
			if won {
				ls.StrictWins++
			} else {
				ls.StrictLosses++
			}
		}
	}

	out := make([]model.LineupStat, 0, len(acc))
	for _, ls := range acc {
		out = append(out, *ls)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Games != out[j].Games {
			return out[i].Games > out[j].Games
		}
		return out[i].LineupKey < out[j].LineupKey
	})
	return out
}

// focusGames keeps the focus team's rows with a decided result.
func focusGames(focus string, tmrs []model.TeamMatchRow) []model.TeamMatchRow {
	var out []model.TeamMatchRow
	for _, t := range tmrs {
		if t.Result == "D" || !fold.Equal(t.Team, focus) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func groupRows(rows []model.PlayerRow) map[sideKey][]model.PlayerRow {
	groups := make(map[sideKey][]model.PlayerRow)
	for _, r := range rows {
		k := sideKey{r.MatchID, r.Side}
		groups[k] = append(groups[k], r)
	}
	return groups
}

func indexMatches(matches []model.Match) map[string]*model.Match {
	byID := make(map[string]*model.Match, len(matches))
	for i := range matches {
		byID[matches[i].MatchID] = &matches[i]
	}
	return byID
}

func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
