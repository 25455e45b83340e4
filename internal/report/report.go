package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-clan-metrics/internal/model"
)

var (
	cHeader = color.New(color.FgCyan, color.Bold)
	cOK     = color.New(color.FgGreen)
	cWarn   = color.New(color.FgYellow)
	cError  = color.New(color.FgRed, color.Bold)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintResultSummary prints a one-line header for a pipeline run.
func PrintResultSummary(w io.Writer, res *model.Result) {
	scope := res.ScopeDate
	if scope == "" {
		scope = "all"
	}
	fmt.Fprintf(w, "\nFocus: %s  |  Scope: %s  |  Matches: %d in scope / %d total  |  Fingerprint: %s\n\n",
		res.FocusTeam, scope, res.Diagnostics.ScopedMatches, res.Diagnostics.TotalMatches, res.Diagnostics.Fingerprint)
}

// PrintDatasetSummary prints the header of a stored snapshot.
func PrintDatasetSummary(w io.Writer, d model.DatasetSummary) {
	fmt.Fprintf(w, "\nFocus: %s  |  Dates: %s → %s  |  Matches: %d / %d  |  Stored: %s  |  Fingerprint: %s\n\n",
		d.FocusTeam, dash(d.FirstDate), dash(d.LastDate), d.ScopedMatches, d.TotalMatches, d.StoredAt, d.Fingerprint)
}

// PrintMatchTable prints one row per match with both sides' teams and flags.
func PrintMatchTable(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("MATCH", "DATE", "MAP", "DUR", "RED", "SCORE", "BLUE", "CLASS", "LOOSE", "STRICT", "H2H")

	for _, m := range matches {
		table.Append(
			m.MatchID,
			dash(m.DateLocal),
			m.Map,
			fmt.Sprintf("%d:%02d", m.DurationSec/60, m.DurationSec%60),
			dash(m.TeamRed),
			fmt.Sprintf("%d : %d", m.ScoreRed, m.ScoreBlue),
			dash(m.TeamBlue),
			fmt.Sprintf("%s/%s", classShort(m.ClassRed), classShort(m.ClassBlue)),
			mark(m.QualifiesLoose),
			mark(m.QualifiesStrict),
			mark(m.QualifiesH2H),
		)
	}
	table.Render()
}

// PrintTeamMatchTable prints team-level rows. Rows of focus are marked with ">".
func PrintTeamMatchTable(w io.Writer, rows []model.TeamMatchRow, focus string) {
	table := newTable(w)
	table.Header(" ", "MATCH", "DATE", "TEAM", "VS", "RES", "SCORE", "K/D", "NET_DMG", "TEAM_DPM", "HHI", "LINEUP")

	for _, t := range rows {
		marker := " "
		if focus != "" && strings.EqualFold(t.Team, focus) {
			marker = ">"
		}
		table.Append(
			marker,
			t.MatchID,
			dash(t.DateLocal),
			t.Team,
			dash(t.Opponent),
			t.Result,
			fmt.Sprintf("%d : %d", t.ScoreFor, t.ScoreAgainst),
			fmt.Sprintf("%.2f", t.KD),
			strconv.Itoa(t.NetDamage),
			fmt.Sprintf("%.0f", t.TeamDPM),
			fmt.Sprintf("%.3f", t.HHI),
			t.LineupKey,
		)
	}
	table.Render()
}

// PrintPairTable prints pair synergy rows with at least minGames games.
func PrintPairTable(w io.Writer, pairs []model.PairStat, minGames int) {
	table := newTable(w)
	table.Header("PAIR", "GAMES", "W", "L", "WIN%", "AVG_NET_DMG", "SAMPLE")

	for _, p := range pairs {
		if p.Games < minGames {
			continue
		}
		table.Append(
			strings.Join(p.Players, " + "),
			strconv.Itoa(p.Games),
			strconv.Itoa(p.Wins),
			strconv.Itoa(p.Losses),
			fmt.Sprintf("%.0f%%", p.WinPct()),
			fmt.Sprintf("%.0f", p.AvgNetDmg()),
			sampleFlag(p.Games),
		)
	}
	table.Render()
}

// PrintLineupTable prints lineup rows with at least minGames games.
func PrintLineupTable(w io.Writer, lineups []model.LineupStat, minGames int) {
	table := newTable(w)
	table.Header("LINEUP", "GAMES", "W", "L", "WIN%", "STRICT", "STRICT_WIN%", "NET_DMG", "SAMPLE")

	for _, l := range lineups {
		if l.Games < minGames {
			continue
		}
		strictPct := "—"
		if l.StrictGames > 0 {
			strictPct = fmt.Sprintf("%.0f%%", l.StrictWinPct())
		}
		table.Append(
			strings.Join(l.Players, ", "),
			strconv.Itoa(l.Games),
			strconv.Itoa(l.Wins),
			strconv.Itoa(l.Losses),
			fmt.Sprintf("%.0f%%", l.WinPct()),
			fmt.Sprintf("%d-%d", l.StrictWins, l.StrictLosses),
			strictPct,
			strconv.Itoa(l.NetDmgSum),
			sampleFlag(l.Games),
		)
	}
	table.Render()
}

// PrintDatasetList prints stored snapshots, newest first.
func PrintDatasetList(w io.Writer, datasets []model.DatasetSummary) {
	table := newTable(w)
	table.Header("FINGERPRINT", "FOCUS", "SCOPE", "FIRST", "LAST", "MATCHES", "TEAM_ROWS", "UNRESOLVED", "STORED")

	for _, d := range datasets {
		table.Append(
			d.Fingerprint,
			d.FocusTeam,
			dash(d.ScopeDate),
			dash(d.FirstDate),
			dash(d.LastDate),
			fmt.Sprintf("%d/%d", d.ScopedMatches, d.TotalMatches),
			strconv.Itoa(d.TeamMatches),
			strconv.Itoa(d.UnresolvedTotal),
			d.StoredAt,
		)
	}
	table.Render()
}

// sampleFlag grades how much a win rate over n games can be trusted.
func sampleFlag(n int) string {
	switch {
	case n >= 10:
		return "OK"
	case n >= 5:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

func classShort(c model.SideClass) string {
	switch c {
	case model.ClassFullTeam:
		return "FULL"
	case model.ClassStack3:
		return "STACK"
	case model.ClassMix:
		return "MIX"
	default:
		return "—"
	}
}

func mark(b bool) string {
	if b {
		return "✓"
	}
	return ""
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
