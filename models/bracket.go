package models

// Bracket ids. Brackets are rating-percentile cohorts: the bottom quartile
// seeds into challenger, the top quartile into elite, everyone else into
// contender.
const (
	BracketChallenger = "challenger"
	BracketContender  = "contender"
	BracketElite      = "elite"
)

// BracketIDs lists the three brackets in ascending rating order.
var BracketIDs = []string{BracketChallenger, BracketContender, BracketElite}

// ValidBracket reports whether id names one of the three brackets.
func ValidBracket(id string) bool {
	for _, b := range BracketIDs {
		if b == id {
			return true
		}
	}
	return false
}

// BracketAssignment is the derived partition of the ranked agent
// population: three pairwise-disjoint member lists, each ordered ascending
// by rating at assignment time. Once cached for a tournament it is pinned.
type BracketAssignment struct {
	TournamentID string   `json:"tournament_id,omitempty"`
	Challenger   []string `json:"challenger"`
	Contender    []string `json:"contender"`
	Elite        []string `json:"elite"`
}

// Members returns the member list for the named bracket.
func (a *BracketAssignment) Members(bracket string) []string {
	switch bracket {
	case BracketChallenger:
		return a.Challenger
	case BracketContender:
		return a.Contender
	case BracketElite:
		return a.Elite
	}
	return nil
}

// Active reports whether a bracket has enough members to pair.
func (a *BracketAssignment) Active(bracket string) bool {
	return len(a.Members(bracket)) >= 2
}

// Size returns the total number of assigned agents.
func (a *BracketAssignment) Size() int {
	return len(a.Challenger) + len(a.Contender) + len(a.Elite)
}
