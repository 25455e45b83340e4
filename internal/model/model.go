package model

import (
	"strings"
	"time"
)

// Side is the colour a player entry was recorded under.
type Side string

const (
	SideRed  Side = "red"
	SideBlue Side = "blue"
	SideDraw Side = "draw" // only used as a Match.Winner value
)

// Opposite returns the other colour; unknown sides map to themselves.
func (s Side) Opposite() Side {
	switch s {
	case SideRed:
		return SideBlue
	case SideBlue:
		return SideRed
	default:
		return s
	}
}

// ParseSide folds a raw "team" value into a Side. Anything that is not red or
// blue comes back empty.
func ParseSide(raw string) Side {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "red":
		return SideRed
	case "blue":
		return SideBlue
	default:
		return ""
	}
}

// Team membership markers produced by the team resolver.
const (
	Unaffiliated = "UNAFFILIATED"
	Ambiguous    = "AMBIGUOUS"
	MixTeam      = "MIX"
	Rotation     = "ROTATION"
)

// SideClass is the roster-confidence classification of one side of a match.
type SideClass string

const (
	ClassUnknown  SideClass = ""
	ClassMix      SideClass = "MIX"
	ClassStack3   SideClass = "STACK_3PLUS"
	ClassFullTeam SideClass = "FULL_TEAM"
)

// Rank orders classifications: FULL_TEAM(3) > STACK_3PLUS(2) > MIX(1) > unknown(0).
func (c SideClass) Rank() int {
	switch c {
	case ClassFullTeam:
		return 3
	case ClassStack3:
		return 2
	case ClassMix:
		return 1
	default:
		return 0
	}
}

// ---- Raw export emitted by the stats service ----

type RawPlayer struct {
	Nick        string           `json:"Nick"`
	Team        string           `json:"team"`
	ID          string           `json:"id"`
	Frags       Int              `json:"Frags"`
	Deaths      Int              `json:"Deaths"`
	Suicides    Int              `json:"Suicides"`
	Assists     Int              `json:"Assists"`
	Captures    Int              `json:"Captures"`
	Defends     Int              `json:"Defends"`
	DamageDealt *Int             `json:"DamageDealt"`
	DamageTaken Int              `json:"DamageTaken"`
	Damage      map[string]Int   `json:"Damage"`
	Accuracy    map[string]Float `json:"Accuracy"`
}

type RawMatch struct {
	MatchID  string      `json:"match_id"`
	PlayedAt string      `json:"played_at"`
	Arena    string      `json:"arena"`
	Scores   string      `json:"scores"`
	Duration string      `json:"duration"`
	Players  []RawPlayer `json:"players"`
}

// ---- Normalized records ----

type Match struct {
	MatchID     string     `json:"match_id"`
	Map         string     `json:"map"`
	PlayedAt    *time.Time `json:"played_at_local"`
	DateLocal   string     `json:"date_local,omitempty"` // empty when the timestamp was invalid
	DurationSec int        `json:"duration_sec"`
	DurationMin float64    `json:"duration_min"`

	ScoreRed  int  `json:"score_red"`
	ScoreBlue int  `json:"score_blue"`
	Winner    Side `json:"winner_side"`

	PlayersRed  int `json:"players_red"`
	PlayersBlue int `json:"players_blue"`

	TeamRed   string    `json:"team_red"`
	TeamBlue  string    `json:"team_blue"`
	ClassRed  SideClass `json:"class_red"`
	ClassBlue SideClass `json:"class_blue"`

	QualifiesLoose     bool `json:"qualifies_loose"`
	QualifiesStrict    bool `json:"qualifies_strict"`
	QualifiesH2H       bool `json:"qualifies_h2h"`
	QualifiesStandings bool `json:"qualifies_standings"`
}

// WinnerOf is the pure score -> winner mapping.
func WinnerOf(red, blue int) Side {
	switch {
	case red > blue:
		return SideRed
	case blue > red:
		return SideBlue
	default:
		return SideDraw
	}
}

// HasDate reports whether the match carries a usable local date.
func (m *Match) HasDate() bool { return m.DateLocal != "" }

// Team returns the resolved team and classification for one side.
func (m *Match) Team(s Side) (string, SideClass) {
	if s == SideBlue {
		return m.TeamBlue, m.ClassBlue
	}
	return m.TeamRed, m.ClassRed
}

// Score returns (for, against) from the point of view of side s.
func (m *Match) Score(s Side) (int, int) {
	if s == SideBlue {
		return m.ScoreBlue, m.ScoreRed
	}
	return m.ScoreRed, m.ScoreBlue
}

// Players returns the side's player count.
func (m *Match) Players(s Side) int {
	if s == SideBlue {
		return m.PlayersBlue
	}
	return m.PlayersRed
}

type PlayerRow struct {
	MatchID     string `json:"match_id"`
	Side        Side   `json:"side"`
	RawNick     string `json:"raw_nick"`
	Canonical   string `json:"canonical"`
	Resolved    bool   `json:"resolved"`
	IdentityKey string `json:"identity_key,omitempty"`

	Frags    int                `json:"frags"`
	Deaths   int                `json:"deaths"`
	Suicides int                `json:"suicides"`
	Assists  int                `json:"assists"`
	Captures int                `json:"captures"`
	Defends  int                `json:"defends"`
	DmgDealt int                `json:"dmg_dealt"`
	DmgTaken int                `json:"dmg_taken"`
	Damage   map[string]int     `json:"damage,omitempty"`
	Accuracy map[string]float64 `json:"accuracy,omitempty"`

	// Team resolution
	TeamMembership string `json:"team_membership"`
	DateInvalid    bool   `json:"date_invalid,omitempty"`

	// Derived rates
	DPM            float64            `json:"dpm"`
	NetDamage      int                `json:"net_damage"`
	KD             float64            `json:"kd"`
	FragEfficiency float64            `json:"frag_efficiency"`
	WeaponShare    map[string]float64 `json:"weapon_share,omitempty"`

	// Role annotations
	Role      string `json:"role_parsed,omitempty"`
	RoleNotes string `json:"role_notes,omitempty"`
}

type TeamMatchRow struct {
	MatchID   string    `json:"match_id"`
	Side      Side      `json:"side"`
	Team      string    `json:"team"`
	Class     SideClass `json:"class"`
	Opponent  string    `json:"opponent"`
	DateLocal string    `json:"date_local,omitempty"`
	Map       string    `json:"map"`

	ScoreFor     int    `json:"score_for"`
	ScoreAgainst int    `json:"score_against"`
	Result       string `json:"result"` // "W", "L" or "D"

	Players     int     `json:"players"`
	Frags       int     `json:"frags"`
	Deaths      int     `json:"deaths"`
	Captures    int     `json:"captures"`
	Defends     int     `json:"defends"`
	DmgDealt    int     `json:"dmg_dealt"`
	DmgTaken    int     `json:"dmg_taken"`
	NetDamage   int     `json:"net_damage"`
	DurationMin float64 `json:"duration_min"`
	TeamDPM     float64 `json:"team_dpm"`
	AvgDPM      float64 `json:"avg_dpm"`
	KD          float64 `json:"kd"`
	HHI         float64 `json:"dmg_hhi"`

	LineupKey string `json:"lineup_key"`

	QualifiesLoose     bool `json:"qualifies_loose"`
	QualifiesStrict    bool `json:"qualifies_strict"`
	QualifiesH2H       bool `json:"qualifies_h2h"`
	QualifiesStandings bool `json:"qualifies_standings"`
}

// Won reports whether the row is a win for its team.
func (t *TeamMatchRow) Won() bool { return t.Result == "W" }

type PairStat struct {
	PairKey   string   `json:"pair_key"`
	Players   []string `json:"players"`
	Games     int      `json:"games"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	NetDmgSum int      `json:"net_dmg_sum"`
}

func (p *PairStat) WinPct() float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Games) * 100
}

func (p *PairStat) AvgNetDmg() float64 {
	if p.Games == 0 {
		return 0
	}
	return float64(p.NetDmgSum) / float64(p.Games)
}

type LineupStat struct {
	LineupKey    string   `json:"lineup_key"`
	Players      []string `json:"players"`
	Games        int      `json:"games"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	NetDmgSum    int      `json:"net_dmg_sum"`
	StrictGames  int      `json:"strict_games"`
	StrictWins   int      `json:"strict_wins"`
	StrictLosses int      `json:"strict_losses"`
}

func (l *LineupStat) WinPct() float64 {
	if l.Games == 0 {
		return 0
	}
	return float64(l.Wins) / float64(l.Games) * 100
}

func (l *LineupStat) StrictWinPct() float64 {
	if l.StrictGames == 0 {
		return 0
	}
	return float64(l.StrictWins) / float64(l.StrictGames) * 100
}

// ---- Externally authored inputs ----

type RoleAnnotation struct {
	MatchID   string `json:"match_id,omitempty"`
	DateLocal string `json:"date_local"`
	Map       string `json:"map"`
	ScoreWB   Text   `json:"score_wb"`
	ScoreOpp  Text   `json:"score_opp"`
	Opponent  string `json:"opponent"`
	RolesRaw  string `json:"roles_raw"`
	WBSide    Side   `json:"wb_side,omitempty"`
}

type RegistryEntry struct {
	Canonical   string            `json:"canonical"`
	Aliases     []string          `json:"aliases"`
	IdentityKey string            `json:"identity_key"`
	Teams       map[string]string `json:"-"` // era -> team, from team_<era> keys
}

// TeamFor returns the team recorded for an era, or "".
func (e *RegistryEntry) TeamFor(era string) string {
	if e.Teams == nil {
		return ""
	}
	return strings.TrimSpace(e.Teams[era])
}

type TeamConfig struct {
	FocusTeam        string            `json:"focus_team" validate:"required"`
	ScopeDate        string            `json:"scope_date" validate:"omitempty,datetime=2006-01-02"`
	ClanTagPatterns  []string          `json:"clan_tag_patterns"`
	RoleNormalize    map[string]string `json:"role_normalize"`
	EraCurrent       string            `json:"era_current"`
	EraPrevious      string            `json:"era_previous"`
	UTCOffsetMinutes int               `json:"utc_offset_minutes" validate:"gte=-840,lte=840"`
	RoleNoneMarker   string            `json:"role_none_marker"`
	RoleModifiers    []string          `json:"role_modifiers"`
}

const (
	DefaultEraCurrent     = "2025"
	DefaultEraPrevious    = "2024"
	DefaultRoleNoneMarker = "no roles recorded"
)

// DefaultRoleModifiers is the fixed set of leading words treated as role
// qualifiers when no list is configured.
var DefaultRoleModifiers = []string{"flag", "mid", "pocket", "roam", "chase", "stand", "support", "sub", "flex"}

// Clone returns a deep copy with defaults filled in. The receiver is never
// modified.
func (c *TeamConfig) Clone() *TeamConfig {
	out := *c
	out.ClanTagPatterns = append([]string(nil), c.ClanTagPatterns...)
	out.RoleModifiers = append([]string(nil), c.RoleModifiers...)
	out.RoleNormalize = make(map[string]string, len(c.RoleNormalize))
	for k, v := range c.RoleNormalize {
		out.RoleNormalize[k] = v
	}
	if out.EraCurrent == "" {
		out.EraCurrent = DefaultEraCurrent
	}
	if out.EraPrevious == "" {
		out.EraPrevious = DefaultEraPrevious
	}
	if out.RoleNoneMarker == "" {
		out.RoleNoneMarker = DefaultRoleNoneMarker
	}
	if len(out.RoleModifiers) == 0 {
		out.RoleModifiers = append([]string(nil), DefaultRoleModifiers...)
	}
	return &out
}

// Location returns the fixed-offset zone local dates are computed in.
func (c *TeamConfig) Location() *time.Location {
	return time.FixedZone("local", c.UTCOffsetMinutes*60)
}

// ---- Pipeline output ----

type UnresolvedNick struct {
	Nick  string `json:"nick"`
	Count int    `json:"count"`
}

// Role-link outcomes.
const (
	LinkOrphaned     = "orphaned"
	LinkNoMatch      = "no_match"
	LinkAmbiguous    = "ambiguous"
	LinkInvalidScore = "invalid_score"
)

type UnlinkedRole struct {
	Index      int      `json:"index"` // position in the annotation input
	DateLocal  string   `json:"date_local"`
	Map        string   `json:"map"`
	ScoreWB    string   `json:"score_wb"`
	ScoreOpp   string   `json:"score_opp"`
	Opponent   string   `json:"opponent,omitempty"`
	Reason     string   `json:"reason"`
	Detail     string   `json:"detail,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

type LinkedRole struct {
	Index   int    `json:"index"`
	MatchID string `json:"match_id"`
	WBSide  Side   `json:"wb_side,omitempty"`
}

type RolePlayerMiss struct {
	MatchID string `json:"match_id"`
	Player  string `json:"player"`
}

type AliasOwner struct {
	Player string `json:"player"`
	Alias  string `json:"alias"`
}

type AliasCollision struct {
	Normalized string       `json:"normalized"`
	Owners     []AliasOwner `json:"owners"`
}

type IdentityKeyDuplicate struct {
	IdentityKey string   `json:"identity_key"`
	Canonicals  []string `json:"canonicals"`
}

type IdentityMismatch struct {
	IdentityKey string   `json:"identity_key"`
	Canonicals  []string `json:"canonicals"`
}

type IntegrityReport struct {
	AliasCollisions       []AliasCollision       `json:"alias_collisions"`
	IdentityKeyDuplicates []IdentityKeyDuplicate `json:"identity_key_duplicates"`
	IdentityMismatches    []IdentityMismatch     `json:"identity_mismatches"`
}

// Clean reports whether no integrity problem was found.
func (r *IntegrityReport) Clean() bool {
	return len(r.AliasCollisions) == 0 && len(r.IdentityKeyDuplicates) == 0 && len(r.IdentityMismatches) == 0
}

type Diagnostics struct {
	BadDuration      int `json:"bad_duration"`
	BadScore         int `json:"bad_score"`
	BadTimestamp     int `json:"bad_timestamp"`
	MissingMatchID   int `json:"missing_match_id"`
	DuplicateMatchID int `json:"duplicate_match_id"`
	UnknownSide      int `json:"unknown_side"`
	DateInvalidRows  int `json:"date_invalid_rows"`

	InvalidClanTagPatterns []string         `json:"invalid_clan_tag_patterns,omitempty"`
	Unresolved             []UnresolvedNick `json:"unresolved"`

	LinkedRoles          []LinkedRole     `json:"linked_roles"`
	OrphanedRoles        []UnlinkedRole   `json:"orphaned_roles"`
	UnresolvedRoles      []UnlinkedRole   `json:"unresolved_roles"`
	DuplicateRoleKeys    int              `json:"duplicate_role_keys"`
	UnmatchedRolePlayers []RolePlayerMiss `json:"unmatched_role_players"`

	Integrity IntegrityReport `json:"integrity"`

	TotalMatches  int    `json:"total_matches"`
	ScopedMatches int    `json:"scoped_matches"`
	Fingerprint   string `json:"fingerprint"`
	InputDigest   string `json:"input_digest"`
}

// UnresolvedTotal sums the occurrences of every unresolved nickname.
func (d *Diagnostics) UnresolvedTotal() int {
	n := 0
	for _, u := range d.Unresolved {
		n += u.Count
	}
	return n
}

type Result struct {
	FocusTeam string `json:"focus_team"`
	ScopeDate string `json:"scope_date"`

	AllMatches     []Match        `json:"all_matches"`
	AllPlayers     []PlayerRow    `json:"all_players"`
	AllTeamMatches []TeamMatchRow `json:"all_team_matches"`

	Matches     []Match        `json:"matches"`
	Players     []PlayerRow    `json:"players"`
	TeamMatches []TeamMatchRow `json:"team_matches"`

	Roles []RoleAnnotation `json:"roles"`

	PairStats   []PairStat   `json:"pair_stats"`
	LineupStats []LineupStat `json:"lineup_stats"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// DatasetSummary describes one stored snapshot, keyed by its fingerprint.
type DatasetSummary struct {
	Fingerprint string `json:"fingerprint"`
	RunID       string `json:"run_id"`
	FocusTeam   string `json:"focus_team"`
	ScopeDate   string `json:"scope_date"`
	StoredAt    string `json:"stored_at"`
	InputDigest string `json:"input_digest"`

	TotalMatches  int    `json:"total_matches"`
	ScopedMatches int    `json:"scoped_matches"`
	FirstDate     string `json:"first_date"`
	LastDate      string `json:"last_date"`
	TeamMatches   int    `json:"team_matches"`

	UnresolvedTotal   int `json:"unresolved_total"`
	LinkedRoles       int `json:"linked_roles"`
	OrphanedRoles     int `json:"orphaned_roles"`
	UnresolvedRoles   int `json:"unresolved_roles"`
	DuplicateRoleKeys int `json:"duplicate_role_keys"`
}
