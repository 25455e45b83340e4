package roles

import (
	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/registry"
)

// MergeReport describes what Merge did.
type MergeReport struct {
	Applied    int
	Duplicates int // (match, player) keys written more than once
	Unmatched  []model.RolePlayerMiss
}

// Merge parses the role string of every linked annotation and writes the
// result onto the matching player rows, keyed by (match_id, folded
// canonical). Role names resolve through idx first and are otherwise taken
// literally. Later annotations overwrite earlier ones. rows is not modified;
// a copy is returned.
func Merge(rows []model.PlayerRow, annotations []model.RoleAnnotation, idx *registry.Index, opts Options) ([]model.PlayerRow, MergeReport) {
	out := make([]model.PlayerRow, len(rows))
	copy(out, rows)

	byKey := make(map[string][]int, len(out))
	for i, r := range out {
		k := rowKey(r.MatchID, r.Canonical)
		byKey[k] = append(byKey[k], i)
	}

	p := newParser(opts)
	var rep MergeReport
	written := make(map[string]struct{})

	for _, a := range annotations {
		if a.MatchID == "" {
			continue
		}
		for _, pr := range p.parse(a.RolesRaw) {
			name := pr.Player
			if idx != nil {
				if canonical, ok := idx.Resolve(name); ok {
					name = canonical
				}
			}
			k := rowKey(a.MatchID, name)

			positions := byKey[k]
			if len(positions) == 0 {
				rep.Unmatched = append(rep.Unmatched, model.RolePlayerMiss{MatchID: a.MatchID, Player: pr.Player})
				continue
			}
			if _, dup := written[k]; dup {
				rep.Duplicates++
			} else {
				rep.Applied++
			}
			written[k] = struct{}{}
			for _, i := range positions {
				out[i].Role = pr.Role
				out[i].RoleNotes = pr.Notes
			}
		}
	}
	return out, rep
}

func rowKey(matchID, name string) string {
	return matchID + "\x00" + fold.Key(name)
}
