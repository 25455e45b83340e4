package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/registry"
)

// Stats collects the per-record problems found while parsing. Nothing here
// aborts a parse.
type Stats struct {
	BadDuration      int
	BadScore         int
	BadTimestamp     int
	MissingMatchID   int
	DuplicateMatchID int
	UnknownSide      int
	Unresolved       map[string]int // raw nick -> occurrences
}

// ParseMatches turns the raw export into one Match per entry and one
// PlayerRow per player entry. Later-stage fields are left zero.
func ParseMatches(raw []model.RawMatch, idx *registry.Index, loc *time.Location) ([]model.Match, []model.PlayerRow, Stats) {
	st := Stats{Unresolved: make(map[string]int)}
	if loc == nil {
		loc = time.UTC
	}

	matches := make([]model.Match, 0, len(raw))
	var rows []model.PlayerRow
	seen := make(map[string]struct{}, len(raw))

	for i, rm := range raw {
		id := strings.TrimSpace(rm.MatchID)
		if id == "" {
			id = fmt.Sprintf("noid-%d", i)
			st.MissingMatchID++
		}
		if _, dup := seen[id]; dup {
			st.DuplicateMatchID++
			continue
		}
		seen[id] = struct{}{}

		m := model.Match{
			MatchID: id,
			Map:     strings.TrimSpace(rm.Arena),
		}

		sec, ok := ParseDuration(rm.Duration)
		if !ok {
			st.BadDuration++
		}
		m.DurationSec = sec
		m.DurationMin = float64(sec) / 60

		red, blue, ok := ParseScore(rm.Scores)
		if !ok {
			st.BadScore++
		}
		m.ScoreRed, m.ScoreBlue = red, blue
		m.Winner = model.WinnerOf(red, blue)

		if t, ok := ParseTimestamp(rm.PlayedAt, loc); ok {
			m.PlayedAt = &t
			m.DateLocal = t.Format(time.DateOnly)
		} else {
			st.BadTimestamp++
		}

		for _, rp := range rm.Players {
			row := playerRow(id, rp, idx, &st)
			switch row.Side {
			case model.SideRed:
				m.PlayersRed++
			case model.SideBlue:
				m.PlayersBlue++
			default:
				st.UnknownSide++
			}
			rows = append(rows, row)
		}
		matches = append(matches, m)
	}
	return matches, rows, st
}

func playerRow(matchID string, rp model.RawPlayer, idx *registry.Index, st *Stats) model.PlayerRow {
	row := model.PlayerRow{
		MatchID:  matchID,
		Side:     model.ParseSide(rp.Team),
		RawNick:  rp.Nick,
		Frags:    int(rp.Frags),
		Deaths:   int(rp.Deaths),
		Suicides: int(rp.Suicides),
		Assists:  int(rp.Assists),
		Captures: int(rp.Captures),
		Defends:  int(rp.Defends),
		DmgTaken: int(rp.DamageTaken),
	}

	weaponTotal := 0
	if len(rp.Damage) > 0 {
		row.Damage = make(map[string]int, len(rp.Damage))
		for w, d := range rp.Damage {
			row.Damage[w] = int(d)
			weaponTotal += int(d)
		}
	}
	if len(rp.Accuracy) > 0 {
		row.Accuracy = make(map[string]float64, len(rp.Accuracy))
		for w, a := range rp.Accuracy {
			row.Accuracy[w] = float64(a)
		}
	}
	if rp.DamageDealt != nil {
		row.DmgDealt = int(*rp.DamageDealt)
	} else {
		row.DmgDealt = weaponTotal
	}

	id := strings.TrimSpace(rp.ID)
	canonical, ok := "", false
	if idx != nil {
		canonical, ok = idx.Resolve(rp.Nick)
		if !ok && id != "" {
			canonical, ok = idx.ResolveIdentityKey(id)
		}
	}
	if !ok {
		row.Canonical = rp.Nick
		row.IdentityKey = id
		st.Unresolved[rp.Nick]++
		return row
	}

	row.Canonical = canonical
	row.Resolved = true
	row.IdentityKey = id
	if row.IdentityKey == "" {
		if e, found := idx.Entry(canonical); found {
			row.IdentityKey = e.IdentityKey
		}
	}
	return row
}

// ParseDuration parses "MM:SS" (or "H:MM:SS") into seconds. Missing or
// malformed input yields (0, false).
func ParseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		if i > 0 && n >= 60 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

var scoreRe = regexp.MustCompile(`^\s*(\d+)\s*:\s*(\d+)\s*$`)

// ParseScore parses "N : M" into (red, blue). Malformed input yields (0, 0, false).
func ParseScore(s string) (int, int, bool) {
	m := scoreRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	red, err1 := strconv.Atoi(m[1])
	blue, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return red, blue, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp reads a UTC timestamp and converts it to loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
