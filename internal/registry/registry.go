// Package registry indexes the curated player registry and audits it.
package registry

import (
	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
	"github.com/pable/go-clan-metrics/internal/nick"
)

// Index maps every known spelling of a player to its canonical name.
// Precedence on key collisions: canonical names, then aliases, then identity
// keys, then clan-tag-normalized forms; within a tier the first registry entry
// wins. Collisions themselves are reported by CheckIntegrity.
type Index struct {
	lookup     map[string]string
	byKey      map[string]string
	entries    map[string]model.RegistryEntry
	normalizer *nick.Normalizer
}

// BuildIndex builds the lookup index. entries is only read.
func BuildIndex(entries []model.RegistryEntry, n *nick.Normalizer) *Index {
	idx := &Index{
		lookup:     make(map[string]string),
		byKey:      make(map[string]string),
		entries:    make(map[string]model.RegistryEntry, len(entries)),
		normalizer: n,
	}

	put := func(m map[string]string, k, canonical string) {
		k = fold.Key(k)
		if k == "" {
			return
		}
		if _, exists := m[k]; !exists {
			m[k] = canonical
		}
	}

	for _, e := range entries {
		if e.Canonical == "" {
			continue
		}
		ck := fold.Key(e.Canonical)
		if _, exists := idx.entries[ck]; !exists {
			idx.entries[ck] = e
		}
		put(idx.lookup, e.Canonical, e.Canonical)
	}
	for _, e := range entries {
		if e.Canonical == "" {
			continue
		}
		for _, a := range e.Aliases {
			put(idx.lookup, a, e.Canonical)
		}
	}
	for _, e := range entries {
		if e.Canonical == "" || e.IdentityKey == "" {
			continue
		}
		put(idx.lookup, e.IdentityKey, e.Canonical)
		put(idx.byKey, e.IdentityKey, e.Canonical)
	}
	for _, e := range entries {
		if e.Canonical == "" {
			continue
		}
		put(idx.lookup, n.Normalize(e.Canonical), e.Canonical)
		for _, a := range e.Aliases {
			put(idx.lookup, n.Normalize(a), e.Canonical)
		}
	}
	return idx
}

// Resolve looks name up as written and then with clan tags stripped.
func (idx *Index) Resolve(name string) (string, bool) {
	if c, ok := idx.lookup[fold.Key(name)]; ok {
		return c, true
	}
	if c, ok := idx.lookup[fold.Key(idx.normalizer.Normalize(name))]; ok {
		return c, true
	}
	return "", false
}

// ResolveIdentityKey looks up a platform identity key.
func (idx *Index) ResolveIdentityKey(key string) (string, bool) {
	c, ok := idx.byKey[fold.Key(key)]
	return c, ok
}

// Entry returns the registry entry for a canonical name, case-insensitively.
func (idx *Index) Entry(canonical string) (model.RegistryEntry, bool) {
	e, ok := idx.entries[fold.Key(canonical)]
	return e, ok
}

// Normalizer returns the clan-tag normalizer the index was built with.
func (idx *Index) Normalizer() *nick.Normalizer { return idx.normalizer }

// Len is the number of distinct canonical players.
func (idx *Index) Len() int { return len(idx.entries) }
