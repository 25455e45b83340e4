package teams

import "github.com/pable/go-clan-metrics/internal/model"

// SideSize is the roster size a match must have on both sides to qualify for
// team-vs-team analysis.
const SideSize = 4

// FlagMatches returns a copy of matches with the four qualification flags set.
func FlagMatches(matches []model.Match) []model.Match {
	out := make([]model.Match, len(matches))
	for i, m := range matches {
		m.QualifiesLoose, m.QualifiesStrict, m.QualifiesH2H, m.QualifiesStandings = false, false, false, false
		if m.PlayersRed == SideSize && m.PlayersBlue == SideSize {
			m.QualifiesLoose, m.QualifiesStrict, m.QualifiesH2H, m.QualifiesStandings =
				Flags(m.ClassRed.Rank(), m.ClassBlue.Rank())
		}
		out[i] = m
	}
	return out
}

// Flags derives (loose, strict, h2h, standings) from the two side ranks.
func Flags(rr, br int) (loose, strict, h2h, standings bool) {
	loose = rr >= 3 || br >= 3
	strict = (rr >= 3 && br >= 2) || (br >= 3 && rr >= 2)
	h2h = rr >= 2 && br >= 2
	standings = rr >= 2 || br >= 2
	return
}
