// Package pipeline runs the analytics stages over one set of inputs and
// assembles the Result. It performs no I/O.
package pipeline

import (
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/Gobusters/ectolinq"
	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/pable/go-clan-metrics/internal/aggregator"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/nick"
	"github.com/pable/go-clan-metrics/internal/parser"
	"github.com/pable/go-clan-metrics/internal/registry"
	"github.com/pable/go-clan-metrics/internal/roles"
	"github.com/pable/go-clan-metrics/internal/teams"
)

// ErrNilConfig is returned when Run is called without a team config.
var ErrNilConfig = crerr.New("team config is required")

// Inputs are the four caller-owned inputs. Run never modifies them.
type Inputs struct {
	Matches  []model.RawMatch
	Registry []model.RegistryEntry
	Config   *model.TeamConfig
	Roles    []model.RoleAnnotation
}

type options struct {
	log *zap.Logger
}

// Option configures Run.
type Option func(*options)

// WithLogger sets the logger stage summaries are written to at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Run executes every stage in order and returns the assembled result.
func Run(in Inputs, opts ...Option) (*model.Result, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if in.Config == nil {
		return nil, ErrNilConfig
	}
	cfg := in.Config.Clone()
	digest, err := Digest(in)
	if err != nil {
		return nil, err
	}
	log := o.log.With(zap.String("focus_team", cfg.FocusTeam))

	n := nick.New(cfg.ClanTagPatterns)
	idx := registry.BuildIndex(in.Registry, n)

	matches, rows, st := parser.ParseMatches(in.Matches, idx, cfg.Location())
	log.Debug("parsed export",
		zap.Int("matches", len(matches)),
		zap.Int("rows", len(rows)),
		zap.Int("unresolved", len(st.Unresolved)),
	)

	rows = teams.Resolve(rows, matches, idx, teams.ErasFrom(cfg))
	matches = teams.ClassifySides(matches, rows)
	matches = teams.FlagMatches(matches)
	rows = aggregator.DeriveAll(matches, rows)

	annotations := roles.Clone(in.Roles)
	link := roles.Link(annotations, matches)
	rows, merged := roles.Merge(rows, annotations, idx, roles.OptionsFrom(cfg))
	log.Debug("linked roles",
		zap.Int("linked", len(link.Linked)),
		zap.Int("orphaned", len(link.Orphaned)),
		zap.Int("unresolved", len(link.Unresolved)),
		zap.Int("duplicates", merged.Duplicates),
	)

	tmrs := aggregator.TeamMatchRows(matches, rows)

	scope := NewScope(cfg.ScopeDate, matches)
	scopedMatches := ectolinq.Filter(matches, func(m model.Match) bool { return scope.Contains(m.MatchID) })
	scopedRows := ectolinq.Filter(rows, func(r model.PlayerRow) bool { return scope.Contains(r.MatchID) })
	scopedTmrs := ectolinq.Filter(tmrs, func(t model.TeamMatchRow) bool { return scope.Contains(t.MatchID) })

	res := &model.Result{
		FocusTeam:      cfg.FocusTeam,
		ScopeDate:      cfg.ScopeDate,
		AllMatches:     matches,
		AllPlayers:     rows,
		AllTeamMatches: tmrs,
		Matches:        scopedMatches,
		Players:        scopedRows,
		TeamMatches:    scopedTmrs,
		Roles:          annotations,
		PairStats:      aggregator.PairStats(cfg.FocusTeam, scopedTmrs, scopedRows),
		LineupStats:    aggregator.LineupStats(cfg.FocusTeam, scopedTmrs, scopedRows),
	}

	res.Diagnostics = model.Diagnostics{
		BadDuration:            st.BadDuration,
		BadScore:               st.BadScore,
		BadTimestamp:           st.BadTimestamp,
		MissingMatchID:         st.MissingMatchID,
		DuplicateMatchID:       st.DuplicateMatchID,
		UnknownSide:            st.UnknownSide,
		DateInvalidRows:        countDateInvalid(rows),
		InvalidClanTagPatterns: n.Invalid(),
		Unresolved:             unresolvedList(st.Unresolved),
		LinkedRoles:            link.Linked,
		OrphanedRoles:          link.Orphaned,
		UnresolvedRoles:        link.Unresolved,
		DuplicateRoleKeys:      merged.Duplicates,
		UnmatchedRolePlayers:   merged.Unmatched,
		Integrity:              registry.CheckIntegrity(in.Registry, rows, n),
		TotalMatches:           len(matches),
		ScopedMatches:          len(scopedMatches),
		Fingerprint:            Fingerprint(scope.IDs()),
		InputDigest:            digest,
	}

	log.Debug("pipeline complete",
		zap.Int("scoped_matches", len(scopedMatches)),
		zap.Int("team_matches", len(scopedTmrs)),
		zap.Int("pairs", len(res.PairStats)),
		zap.Int("lineups", len(res.LineupStats)),
		zap.String("fingerprint", res.Diagnostics.Fingerprint),
	)
	return res, nil
}

// Fingerprint is an FNV-1a 32-bit hash over the sorted match ids, as eight
// hex digits. Input order does not matter.
func Fingerprint(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	h := fnv.New32a()
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// Digest hashes every input, with the config's defaults filled in, into 16
// hex digits. Runs over the same match ids but different settings, registry
// or roles get different digests.
func Digest(in Inputs) (string, error) {
	var cfg *model.TeamConfig
	if in.Config != nil {
		cfg = in.Config.Clone()
	}
	b, err := sonic.ConfigStd.Marshal(struct {
		Config   *model.TeamConfig      `json:"config"`
		Registry []model.RegistryEntry  `json:"registry"`
		Roles    []model.RoleAnnotation `json:"roles"`
		Matches  []model.RawMatch       `json:"matches"`
	}{cfg, in.Registry, in.Roles, in.Matches})
	if err != nil {
		return "", crerr.Wrap(err, "digest inputs")
	}
	h := fnv.New64a()
	h.Write(b)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func countDateInvalid(rows []model.PlayerRow) int {
	n := 0
	for _, r := range rows {
		if r.DateInvalid {
			n++
		}
	}
	return n
}

// unresolvedList orders nicks by count desc, then nick.
func unresolvedList(counts map[string]int) []model.UnresolvedNick {
	out := make([]model.UnresolvedNick, 0, len(counts))
	for nickname, c := range counts {
		out = append(out, model.UnresolvedNick{Nick: nickname, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Nick < out[j].Nick
	})
	return out
}
