package roles

import (
	"regexp"
	"strings"

	"github.com/pable/go-clan-metrics/internal/fold"
	"github.com/pable/go-clan-metrics/internal/model"
)

// Options controls role-string parsing. Keys of Normalize and entries of
// Modifiers are compared case-folded.
type Options struct {
	Normalize  map[string]string
	Modifiers  []string
	NoneMarker string
}

// OptionsFrom builds parse options from a team config (defaults applied).
func OptionsFrom(cfg *model.TeamConfig) Options {
	c := cfg.Clone()
	return Options{
		Normalize:  c.RoleNormalize,
		Modifiers:  c.RoleModifiers,
		NoneMarker: c.RoleNoneMarker,
	}
}

// Fact is one (role, notes) assignment seen for a player.
type Fact struct {
	Role  string
	Notes string
}

// Parsed is the collapsed role of one player within one annotation.
type Parsed struct {
	Player string
	Role   string
	Notes  string
	Facts  []Fact
}

var noteRe = regexp.MustCompile(`\(([^()]*)\)`)

type parser struct {
	normalize map[string]string
	modifiers map[string]struct{}
	none      string
}

func newParser(opts Options) *parser {
	p := &parser{
		normalize: make(map[string]string, len(opts.Normalize)),
		modifiers: make(map[string]struct{}, len(opts.Modifiers)),
		none:      fold.Key(opts.NoneMarker),
	}
	for k, v := range opts.Normalize {
		p.normalize[fold.Key(k)] = strings.TrimSpace(v)
	}
	for _, m := range opts.Modifiers {
		p.modifiers[fold.Key(m)] = struct{}{}
	}
	return p
}

// ParseRoles splits "def: foo; off: bar, mid baz (note)" into one Parsed per
// player, in order of first appearance. A string containing the none marker
// yields nothing.
func ParseRoles(raw string, opts Options) []Parsed {
	return newParser(opts).parse(raw)
}

func (p *parser) parse(raw string) []Parsed {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if p.none != "" && strings.Contains(fold.Key(raw), p.none) {
		return nil
	}

	var order []string
	byPlayer := make(map[string]*Parsed)

	for _, seg := range strings.Split(raw, ";") {
		role, list, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		base := p.role(role)
		if base == "" {
			continue
		}
		for _, entry := range splitTopLevel(list) {
			player, fact, ok := p.entry(base, entry)
			if !ok {
				continue
			}
			k := fold.Key(player)
			pr, seen := byPlayer[k]
			if !seen {
				pr = &Parsed{Player: player}
				byPlayer[k] = pr
				order = append(order, k)
			}
			pr.Facts = append(pr.Facts, fact)
		}
	}

	out := make([]Parsed, 0, len(order))
	for _, k := range order {
		pr := byPlayer[k]
		pr.Role = collapse(pr.Facts)
		pr.Notes = joinNotes(pr.Facts)
		out = append(out, *pr)
	}
	return out
}

func (p *parser) role(tok string) string {
	k := fold.Key(tok)
	if v, ok := p.normalize[k]; ok && v != "" {
		return v
	}
	return k
}

func (p *parser) isModifier(word string) bool {
	k := fold.Key(word)
	if _, ok := p.modifiers[k]; ok {
		return true
	}
	_, ok := p.normalize[k]
	return ok
}

// entry splits one player entry into its name and role fact.
func (p *parser) entry(base, text string) (string, Fact, bool) {
	var notes []string
	for _, m := range noteRe.FindAllStringSubmatch(text, -1) {
		if n := strings.TrimSpace(m[1]); n != "" {
			notes = append(notes, n)
		}
	}
	words := strings.Fields(noteRe.ReplaceAllString(text, " "))
	if len(words) == 0 {
		return "", Fact{}, false
	}

	role := base
	if len(words) > 1 && p.isModifier(words[0]) {
		role = base + "+" + p.role(words[0])
		words = words[1:]
	}
	return strings.Join(words, " "), Fact{Role: role, Notes: strings.Join(notes, "; ")}, true
}

// collapse picks the final role: ROTATION when more than one base role was
// seen, else the first modifier-qualified variant, else the base role.
func collapse(facts []Fact) string {
	bases := make(map[string]struct{})
	for _, f := range facts {
		b, _, _ := strings.Cut(f.Role, "+")
		bases[b] = struct{}{}
	}
	if len(bases) > 1 {
		return model.Rotation
	}
	for _, f := range facts {
		if strings.Contains(f.Role, "+") {
			return f.Role
		}
	}
	return facts[0].Role
}

func joinNotes(facts []Fact) string {
	var notes []string
	seen := make(map[string]struct{})
	for _, f := range facts {
		if f.Notes == "" {
			continue
		}
		if _, dup := seen[f.Notes]; dup {
			continue
		}
		seen[f.Notes] = struct{}{}
		notes = append(notes, f.Notes)
	}
	return strings.Join(notes, "; ")
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
