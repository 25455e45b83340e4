package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pable/go-clan-metrics/internal/model"
)

// PrintDiagnostics prints the data-quality report of a run. Problems are
// highlighted; a clean section prints a single OK line.
func PrintDiagnostics(w io.Writer, d model.Diagnostics, maxRows int) {
	cHeader.Fprintf(w, "\n=== Parse ===\n\n")
	counters := []struct {
		label string
		n     int
	}{
		{"Bad durations", d.BadDuration},
		{"Bad scores", d.BadScore},
		{"Bad timestamps", d.BadTimestamp},
		{"Missing match ids", d.MissingMatchID},
		{"Duplicate match ids", d.DuplicateMatchID},
		{"Unknown sides", d.UnknownSide},
		{"Rows without date", d.DateInvalidRows},
	}
	for _, c := range counters {
		line := fmt.Sprintf("  %-20s: %d\n", c.label, c.n)
		if c.n > 0 {
			cWarn.Fprint(w, line)
		} else {
			fmt.Fprint(w, line)
		}
	}
	for _, p := range d.InvalidClanTagPatterns {
		cError.Fprintf(w, "  invalid clan-tag pattern skipped: %q\n", p)
	}

	cHeader.Fprintf(w, "\n=== Unresolved players (%d nicks, %d rows) ===\n\n", len(d.Unresolved), d.UnresolvedTotal())
	if len(d.Unresolved) == 0 {
		cOK.Fprintln(w, "  OK")
	} else {
		table := newTable(w)
		table.Header("NICK", "ROWS")
		for i, u := range d.Unresolved {
			if maxRows > 0 && i >= maxRows {
				break
			}
			table.Append(u.Nick, strconv.Itoa(u.Count))
		}
		table.Render()
	}

	cHeader.Fprintf(w, "\n=== Roles ===\n\n")
	fmt.Fprintf(w, "  Linked        : %d\n", len(d.LinkedRoles))
	fmt.Fprintf(w, "  Orphaned      : %d\n", len(d.OrphanedRoles))
	fmt.Fprintf(w, "  Unresolved    : %d\n", len(d.UnresolvedRoles))
	fmt.Fprintf(w, "  Overwritten   : %d\n", d.DuplicateRoleKeys)
	fmt.Fprintf(w, "  Unknown names : %d\n", len(d.UnmatchedRolePlayers))
	if len(d.OrphanedRoles)+len(d.UnresolvedRoles) > 0 {
		fmt.Fprintln(w)
		table := newTable(w)
		table.Header("#", "DATE", "MAP", "SCORE", "REASON", "CANDIDATES")
		for _, u := range append(append([]model.UnlinkedRole(nil), d.UnresolvedRoles...), d.OrphanedRoles...) {
			reason := u.Reason
			if u.Detail != "" {
				reason += " (" + u.Detail + ")"
			}
			table.Append(
				strconv.Itoa(u.Index),
				dash(u.DateLocal),
				u.Map,
				u.ScoreWB+" : "+u.ScoreOpp,
				reason,
				strings.Join(u.Candidates, ", "),
			)
		}
		table.Render()
	}

	cHeader.Fprintf(w, "\n=== Registry integrity ===\n\n")
	if d.Integrity.Clean() {
		cOK.Fprintln(w, "  OK")
		return
	}
	for _, c := range d.Integrity.AliasCollisions {
		owners := make([]string, 0, len(c.Owners))
		for _, o := range c.Owners {
			owners = append(owners, fmt.Sprintf("%s (%s)", o.Player, o.Alias))
		}
		cError.Fprintf(w, "  alias collision %q: %s\n", c.Normalized, strings.Join(owners, ", "))
	}
	for _, k := range d.Integrity.IdentityKeyDuplicates {
		cError.Fprintf(w, "  identity key %s shared by: %s\n", k.IdentityKey, strings.Join(k.Canonicals, ", "))
	}
	for _, m := range d.Integrity.IdentityMismatches {
		cWarn.Fprintf(w, "  identity key %s seen as: %s\n", m.IdentityKey, strings.Join(m.Canonicals, ", "))
	}
}
