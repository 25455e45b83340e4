package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Int is an integer counter that tolerates numbers, numeric strings and null
// in the raw export. Anything unparsable decodes to 0.
type Int int

func (i *Int) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" {
		*i = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*i = Int(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*i = Int(math.Round(f))
		return nil
	}
	*i = 0
	return nil
}

// Float is the float counterpart of Int (accuracy percentages).
type Float float64

func (f *Float) UnmarshalJSON(b []byte) error {
	s := strings.TrimSuffix(unquote(b), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*f = 0
		return nil
	}
	*f = Float(v)
	return nil
}

// Text keeps a scalar's raw textual form, whether it arrived as a JSON string
// or a number, so callers can decide how to parse it.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text(unquote(b))
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

// Int parses the text as a base-10 integer. Integral floats such as "5.0"
// are accepted; fractional values are not.
func (t Text) Int() (int, error) {
	s := strings.TrimSpace(string(t))
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, err
	}
	return int(f), nil
}

func unquote(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return ""
	}
	if u, err := strconv.Unquote(s); err == nil {
		s = u
	}
	return strings.TrimSpace(s)
}

// registryEntryJSON mirrors RegistryEntry without its custom decoder.
type registryEntryJSON struct {
	Canonical   string   `json:"canonical"`
	Aliases     []string `json:"aliases"`
	IdentityKey Text     `json:"identity_key"`
}

const teamKeyPrefix = "team_"

// UnmarshalJSON collects every team_<era> key into Teams.
func (e *RegistryEntry) UnmarshalJSON(b []byte) error {
	var base registryEntryJSON
	if err := sonic.Unmarshal(b, &base); err != nil {
		return err
	}
	var all map[string]any
	if err := sonic.Unmarshal(b, &all); err != nil {
		return err
	}
	e.Canonical = strings.TrimSpace(base.Canonical)
	e.Aliases = base.Aliases
	e.IdentityKey = strings.TrimSpace(string(base.IdentityKey))
	e.Teams = make(map[string]string)
	for k, v := range all {
		if !strings.HasPrefix(k, teamKeyPrefix) {
			continue
		}
		if s, ok := v.(string); ok {
			e.Teams[strings.TrimPrefix(k, teamKeyPrefix)] = s
		}
	}
	return nil
}

func (e RegistryEntry) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"canonical":    e.Canonical,
		"aliases":      e.Aliases,
		"identity_key": e.IdentityKey,
	}
	for era, team := range e.Teams {
		out[teamKeyPrefix+era] = team
	}
	return sonic.ConfigStd.Marshal(out)
}
