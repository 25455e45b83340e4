package registry

import (
	"sort"

	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/nick"
)

// CheckIntegrity runs the three registry audits. The result does not depend
// on the order of entries or rows.
func CheckIntegrity(entries []model.RegistryEntry, rows []model.PlayerRow, n *nick.Normalizer) model.IntegrityReport {
	return model.IntegrityReport{
		AliasCollisions:       AliasCollisions(entries, n),
		IdentityKeyDuplicates: IdentityKeyDuplicates(entries),
		IdentityMismatches:    IdentityMismatches(rows),
	}
}

// AliasCollisions reports every normalized, case-folded spelling that two
// different canonical players both claim.
func AliasCollisions(entries []model.RegistryEntry, n *nick.Normalizer) []model.AliasCollision {
	type claim struct {
		owners  map[model.AliasOwner]struct{}
		players map[string]struct{}
	}
	claims := make(map[string]*claim)

	for _, e := range entries {
		if e.Canonical == "" {
			continue
		}
		names := append([]string{e.Canonical}, e.Aliases...)
		for _, name := range names {
			k := fold.Key(n.Normalize(name))
			if k == "" {
				continue
			}
			c := claims[k]
			if c == nil {
				c = &claim{owners: map[model.AliasOwner]struct{}{}, players: map[string]struct{}{}}
				claims[k] = c
			}
			c.owners[model.AliasOwner{Player: e.Canonical, Alias: name}] = struct{}{}
			c.players[fold.Key(e.Canonical)] = struct{}{}
		}
	}

	var out []model.AliasCollision
	for k, c := range claims {
		if len(c.players) < 2 {
			continue
		}
		owners := make([]model.AliasOwner, 0, len(c.owners))
		for o := range c.owners {
			owners = append(owners, o)
		}
		sort.Slice(owners, func(i, j int) bool {
			if owners[i].Player != owners[j].Player {
				return owners[i].Player < owners[j].Player
			}
			return owners[i].Alias < owners[j].Alias
		})
		out = append(out, model.AliasCollision{Normalized: k, Owners: owners})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Normalized < out[j].Normalized })
	return out
}

// IdentityKeyDuplicates reports identity keys claimed by more than one
// canonical name in the registry.
func IdentityKeyDuplicates(entries []model.RegistryEntry) []model.IdentityKeyDuplicate {
	groups := make(map[string]map[string]struct{})
	for _, e := range entries {
		if e.IdentityKey == "" || e.Canonical == "" {
			continue
		}
		addTo(groups, e.IdentityKey, e.Canonical)
	}
	var out []model.IdentityKeyDuplicate
	for key, names := range groups {
		if len(names) > 1 {
			out = append(out, model.IdentityKeyDuplicate{IdentityKey: key, Canonicals: sortedKeys(names)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityKey < out[j].IdentityKey })
	return out
}

// IdentityMismatches reports identity keys that resolved to more than one
// canonical name across the parsed rows, which usually means the registry was
// edited mid-season.
func IdentityMismatches(rows []model.PlayerRow) []model.IdentityMismatch {
	groups := make(map[string]map[string]struct{})
	for _, r := range rows {
		if !r.Resolved || r.IdentityKey == "" {
			continue
		}
		addTo(groups, r.IdentityKey, r.Canonical)
	}
	var out []model.IdentityMismatch
	for key, names := range groups {
		if len(names) > 1 {
			out = append(out, model.IdentityMismatch{IdentityKey: key, Canonicals: sortedKeys(names)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IdentityKey < out[j].IdentityKey })
	return out
}

func addTo(groups map[string]map[string]struct{}, key, name string) {
	g := groups[key]
	if g == nil {
		g = make(map[string]struct{})
		groups[key] = g
	}
	g[name] = struct{}{}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
