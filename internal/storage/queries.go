package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/pable/go-clan-metrics/internal/model"
)

// InsertResult stores the scoped part of a result under its fingerprint,
// replacing any earlier snapshot with the same fingerprint. It returns the
// new run id.
func (db *DB) InsertResult(res *model.Result) (string, error) {
	fp := res.Diagnostics.Fingerprint
	if fp == "" {
		return "", fmt.Errorf("result has no fingerprint")
	}
	runID := uuid.NewString()

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := deleteDataset(tx, fp); err != nil {
		return "", err
	}

	first, last := dateRange(res.Matches)
	d := &res.Diagnostics
	_, err = tx.Exec(`
		INSERT INTO datasets(
			fingerprint, run_id, focus_team, scope_date, stored_at, input_digest,
			total_matches, scoped_matches, first_date, last_date, team_matches,
			unresolved_total, linked_roles, orphaned_roles, unresolved_roles, duplicate_role_keys
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		fp, runID, res.FocusTeam, res.ScopeDate, db.now().UTC().Format(time.RFC3339), d.InputDigest,
		d.TotalMatches, d.ScopedMatches, first, last, len(res.TeamMatches),
		d.UnresolvedTotal(), len(d.LinkedRoles), len(d.OrphanedRoles), len(d.UnresolvedRoles), d.DuplicateRoleKeys,
	)
	if err != nil {
		return "", fmt.Errorf("insert dataset: %w", err)
	}

	if err := insertMatches(tx, fp, res.Matches); err != nil {
		return "", err
	}
	if err := insertTeamMatchRows(tx, fp, res.TeamMatches); err != nil {
		return "", err
	}
	if err := insertPairStats(tx, fp, res.PairStats); err != nil {
		return "", err
	}
	if err := insertLineupStats(tx, fp, res.LineupStats); err != nil {
		return "", err
	}
	return runID, tx.Commit()
}

// DropDataset removes a snapshot and everything stored under it.
func (db *DB) DropDataset(fingerprint string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := deleteDataset(tx, fingerprint); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteDataset(tx *sql.Tx, fp string) error {
	for _, table := range []string{"lineup_stats", "pair_stats", "team_match_rows", "matches", "datasets"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE fingerprint = ?", fp); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

func insertMatches(tx *sql.Tx, fp string, matches []model.Match) error {
	stmt, err := tx.Prepare(`
		INSERT INTO matches(
			fingerprint, match_id, date_local, map, duration_sec,
			score_red, score_blue, winner,
			team_red, team_blue, class_red, class_blue,
			qualifies_loose, qualifies_strict, qualifies_h2h, qualifies_standings
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		_, err = stmt.Exec(
			fp, m.MatchID, m.DateLocal, m.Map, m.DurationSec,
			m.ScoreRed, m.ScoreBlue, string(m.Winner),
			m.TeamRed, m.TeamBlue, string(m.ClassRed), string(m.ClassBlue),
			boolInt(m.QualifiesLoose), boolInt(m.QualifiesStrict),
			boolInt(m.QualifiesH2H), boolInt(m.QualifiesStandings),
		)
		if err != nil {
			return fmt.Errorf("insert match %s: %w", m.MatchID, err)
		}
	}
	return nil
}

func insertTeamMatchRows(tx *sql.Tx, fp string, rows []model.TeamMatchRow) error {
	stmt, err := tx.Prepare(`
		INSERT INTO team_match_rows(
			fingerprint, match_id, side, team, class, opponent, date_local, map,
			score_for, score_against, result, players,
			frags, deaths, dmg_dealt, dmg_taken, net_damage,
			team_dpm, avg_dpm, kd, hhi, lineup_key, qualifies_strict
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range rows {
		_, err = stmt.Exec(
			fp, t.MatchID, string(t.Side), t.Team, string(t.Class), t.Opponent, t.DateLocal, t.Map,
			t.ScoreFor, t.ScoreAgainst, t.Result, t.Players,
			t.Frags, t.Deaths, t.DmgDealt, t.DmgTaken, t.NetDamage,
			t.TeamDPM, t.AvgDPM, t.KD, t.HHI, t.LineupKey, boolInt(t.QualifiesStrict),
		)
		if err != nil {
			return fmt.Errorf("insert team_match_rows for %s/%s: %w", t.MatchID, t.Side, err)
		}
	}
	return nil
}

func insertPairStats(tx *sql.Tx, fp string, stats []model.PairStat) error {
	stmt, err := tx.Prepare(`
		INSERT INTO pair_stats(fingerprint, pair_key, players, games, wins, losses, net_dmg_sum)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range stats {
		players, err := sonic.MarshalString(p.Players)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(fp, p.PairKey, players, p.Games, p.Wins, p.Losses, p.NetDmgSum); err != nil {
			return fmt.Errorf("insert pair_stats for %s: %w", p.PairKey, err)
		}
	}
	return nil
}

func insertLineupStats(tx *sql.Tx, fp string, stats []model.LineupStat) error {
	stmt, err := tx.Prepare(`
		INSERT INTO lineup_stats(
			fingerprint, lineup_key, players, games, wins, losses, net_dmg_sum,
			strict_games, strict_wins, strict_losses
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range stats {
		players, err := sonic.MarshalString(l.Players)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(fp, l.LineupKey, players, l.Games, l.Wins, l.Losses, l.NetDmgSum,
			l.StrictGames, l.StrictWins, l.StrictLosses)
		if err != nil {
			return fmt.Errorf("insert lineup_stats for %s: %w", l.LineupKey, err)
		}
	}
	return nil
}

const datasetColumns = `
	fingerprint, run_id, focus_team, scope_date, stored_at, input_digest,
	total_matches, scoped_matches, first_date, last_date, team_matches,
	unresolved_total, linked_roles, orphaned_roles, unresolved_roles, duplicate_role_keys`

type scanner interface {
	Scan(dest ...any) error
}

func scanDataset(s scanner, d *model.DatasetSummary) error {
	return s.Scan(
		&d.Fingerprint, &d.RunID, &d.FocusTeam, &d.ScopeDate, &d.StoredAt, &d.InputDigest,
		&d.TotalMatches, &d.ScopedMatches, &d.FirstDate, &d.LastDate, &d.TeamMatches,
		&d.UnresolvedTotal, &d.LinkedRoles, &d.OrphanedRoles, &d.UnresolvedRoles, &d.DuplicateRoleKeys,
	)
}

// ListDatasets returns all stored snapshots, newest first.
func (db *DB) ListDatasets() ([]model.DatasetSummary, error) {
	rows, err := db.conn.Query(`SELECT ` + datasetColumns + ` FROM datasets ORDER BY stored_at DESC, fingerprint`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DatasetSummary
	for rows.Next() {
		var d model.DatasetSummary
		if err := scanDataset(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDataset returns the snapshot stored under exactly this fingerprint, or
// nil if there is none.
func (db *DB) GetDataset(fingerprint string) (*model.DatasetSummary, error) {
	var d model.DatasetSummary
	row := db.conn.QueryRow(`SELECT `+datasetColumns+` FROM datasets WHERE fingerprint = ?`, fingerprint)
	err := scanDataset(row, &d)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Same reports whether the stored snapshot was produced by the same run
// settings and inputs as res.
func Same(d *model.DatasetSummary, res *model.Result) bool {
	return d.FocusTeam == res.FocusTeam &&
		d.ScopeDate == res.ScopeDate &&
		d.InputDigest == res.Diagnostics.InputDigest
}

// GetDatasetByPrefix finds the first snapshot whose fingerprint starts with the given prefix.
func (db *DB) GetDatasetByPrefix(prefix string) (*model.DatasetSummary, error) {
	var d model.DatasetSummary
	row := db.conn.QueryRow(`SELECT `+datasetColumns+` FROM datasets WHERE fingerprint LIKE ? ORDER BY fingerprint LIMIT 1`, prefix+"%")
	err := scanDataset(row, &d)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetMatches returns the stored in-scope matches, ordered by date then id.
func (db *DB) GetMatches(fingerprint string) ([]model.Match, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, date_local, map, duration_sec, score_red, score_blue, winner,
		       team_red, team_blue, class_red, class_blue,
		       qualifies_loose, qualifies_strict, qualifies_h2h, qualifies_standings
		FROM matches WHERE fingerprint = ?
		ORDER BY date_local, match_id`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var m model.Match
		var winner, classRed, classBlue string
		var loose, strict, h2h, standings int
		if err := rows.Scan(
			&m.MatchID, &m.DateLocal, &m.Map, &m.DurationSec, &m.ScoreRed, &m.ScoreBlue, &winner,
			&m.TeamRed, &m.TeamBlue, &classRed, &classBlue,
			&loose, &strict, &h2h, &standings,
		); err != nil {
			return nil, err
		}
		m.Winner = model.Side(winner)
		m.ClassRed, m.ClassBlue = model.SideClass(classRed), model.SideClass(classBlue)
		m.DurationMin = float64(m.DurationSec) / 60
		m.QualifiesLoose, m.QualifiesStrict = loose != 0, strict != 0
		m.QualifiesH2H, m.QualifiesStandings = h2h != 0, standings != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetTeamMatchRows returns the stored team-match rows for one team (all teams
// when team is empty), ordered by date then match.
func (db *DB) GetTeamMatchRows(fingerprint, team string) ([]model.TeamMatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, side, team, class, opponent, date_local, map,
		       score_for, score_against, result, players,
		       frags, deaths, dmg_dealt, dmg_taken, net_damage,
		       team_dpm, avg_dpm, kd, hhi, lineup_key, qualifies_strict
		FROM team_match_rows
		WHERE fingerprint = ? AND (? = '' OR team = ? COLLATE NOCASE)
		ORDER BY date_local, match_id, side`, fingerprint, team, team)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamMatchRow
	for rows.Next() {
		var t model.TeamMatchRow
		var side, class string
		var strict int
		if err := rows.Scan(
			&t.MatchID, &side, &t.Team, &class, &t.Opponent, &t.DateLocal, &t.Map,
			&t.ScoreFor, &t.ScoreAgainst, &t.Result, &t.Players,
			&t.Frags, &t.Deaths, &t.DmgDealt, &t.DmgTaken, &t.NetDamage,
			&t.TeamDPM, &t.AvgDPM, &t.KD, &t.HHI, &t.LineupKey, &strict,
		); err != nil {
			return nil, err
		}
		t.Side = model.Side(side)
		t.Class = model.SideClass(class)
		t.QualifiesStrict = strict != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetPairStats returns the stored pair stats, ordered by games DESC then key.
func (db *DB) GetPairStats(fingerprint string) ([]model.PairStat, error) {
	rows, err := db.conn.Query(`
		SELECT pair_key, players, games, wins, losses, net_dmg_sum
		FROM pair_stats WHERE fingerprint = ?
		ORDER BY games DESC, pair_key`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PairStat
	for rows.Next() {
		var p model.PairStat
		var players string
		if err := rows.Scan(&p.PairKey, &players, &p.Games, &p.Wins, &p.Losses, &p.NetDmgSum); err != nil {
			return nil, err
		}
		if err := sonic.UnmarshalString(players, &p.Players); err != nil {
			return nil, fmt.Errorf("decode players of %s: %w", p.PairKey, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetLineupStats returns the stored lineup stats, ordered by games DESC then key.
func (db *DB) GetLineupStats(fingerprint string) ([]model.LineupStat, error) {
	rows, err := db.conn.Query(`
		SELECT lineup_key, players, games, wins, losses, net_dmg_sum,
		       strict_games, strict_wins, strict_losses
		FROM lineup_stats WHERE fingerprint = ?
		ORDER BY games DESC, lineup_key`, fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LineupStat
	for rows.Next() {
		var l model.LineupStat
		var players string
		if err := rows.Scan(&l.LineupKey, &players, &l.Games, &l.Wins, &l.Losses, &l.NetDmgSum,
			&l.StrictGames, &l.StrictWins, &l.StrictLosses); err != nil {
			return nil, err
		}
		if err := sonic.UnmarshalString(players, &l.Players); err != nil {
			return nil, fmt.Errorf("decode players of %s: %w", l.LineupKey, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// dateRange returns the earliest and latest local dates among dated matches.
func dateRange(matches []model.Match) (string, string) {
	var first, last string
	for _, m := range matches {
		if !m.HasDate() {
			continue
		}
		if first == "" || m.DateLocal < first {
			first = m.DateLocal
		}
		if m.DateLocal > last {
			last = m.DateLocal
		}
	}
	return first, last
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
