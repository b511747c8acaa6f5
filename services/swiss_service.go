package services

import (
	"math"
	"sort"

	"agent-arena-system/models"
)

// Swiss scoring and scheduling for one bracket. Everything here is pure:
// callers load matches and members, these functions only compute.

const (
	minSwissRounds = 3
	pointsWin      = 1.0
	pointsDraw     = 0.5
)

// TotalRounds returns the Swiss round count for a field of n agents:
// ceil(log2(n)) clamped to [3, n-1]. Fields smaller than 2 play no rounds.
func TotalRounds(n int) int {
	if n < 2 {
		return 0
	}
	rounds := int(math.Ceil(math.Log2(float64(n))))
	if rounds < minSwissRounds {
		rounds = minSwissRounds
	}
	if rounds > n-1 {
		rounds = n - 1
	}
	return rounds
}

// ComputeStandings scores the given completed matches for the bracket members
// and returns standings sorted by points, then Buchholz tiebreak, then agent
// id for stability.
//
// Rematch rule: only the first encounter between two agents counts toward
// matches_played and the opponent set. Points from rematches still accrue, so
// a rescheduled pairing never loses a result, but it cannot inflate round
// progress or Buchholz.
func ComputeStandings(memberIDs []string, completed []models.Match) []models.SwissStanding {
	byID := make(map[string]*models.SwissStanding, len(memberIDs))
	member := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		member[id] = true
		byID[id] = &models.SwissStanding{AgentID: id, Opponents: []string{}}
	}

	seen := make(map[string]map[string]bool, len(memberIDs))
	firstEncounter := func(a, b string) bool {
		if seen[a] == nil {
			seen[a] = make(map[string]bool)
		}
		if seen[a][b] {
			return false
		}
		seen[a][b] = true
		return true
	}

	for _, m := range completed {
		a, b := byID[m.AgentAID], byID[m.AgentBID]
		if a == nil || b == nil || !member[m.AgentAID] || !member[m.AgentBID] {
			continue
		}

		switch {
		case m.Winner == nil:
			a.Points += pointsDraw
			b.Points += pointsDraw
		case *m.Winner == models.WinnerAgentA:
			a.Points += pointsWin
		case *m.Winner == models.WinnerAgentB:
			b.Points += pointsWin
		}

		if firstEncounter(m.AgentAID, m.AgentBID) {
			firstEncounter(m.AgentBID, m.AgentAID)
			a.MatchesPlayed++
			b.MatchesPlayed++
			a.Opponents = append(a.Opponents, m.AgentBID)
			b.Opponents = append(b.Opponents, m.AgentAID)
		}
	}

	standings := make([]models.SwissStanding, 0, len(memberIDs))
	for _, id := range memberIDs {
		standings = append(standings, *byID[id])
	}

	// Buchholz: sum of distinct opponents' points.
	points := make(map[string]float64, len(standings))
	for _, s := range standings {
		points[s.AgentID] = s.Points
	}
	for i := range standings {
		for _, opp := range standings[i].Opponents {
			standings[i].Tiebreak += points[opp]
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		if standings[i].Tiebreak != standings[j].Tiebreak {
			return standings[i].Tiebreak > standings[j].Tiebreak
		}
		return standings[i].AgentID < standings[j].AgentID
	})
	return standings
}

// ComputeBracketStatus derives round position and completion from standings
// plus the live match queues. An empty bracket is vacuously complete.
func ComputeBracketStatus(standings []models.SwissStanding, pending, inProgress []models.Match) models.BracketStatus {
	status := models.BracketStatus{TotalRounds: TotalRounds(len(standings))}
	if len(standings) == 0 {
		status.Complete = true
		return status
	}

	status.MinPlayed = standings[0].MatchesPlayed
	status.MaxPlayed = standings[0].MatchesPlayed
	for _, s := range standings[1:] {
		if s.MatchesPlayed < status.MinPlayed {
			status.MinPlayed = s.MatchesPlayed
		}
		if s.MatchesPlayed > status.MaxPlayed {
			status.MaxPlayed = s.MatchesPlayed
		}
	}

	if status.MinPlayed == status.MaxPlayed {
		status.Transition = true
		status.CurrentRound = status.MaxPlayed + 1
	} else {
		status.CurrentRound = status.MaxPlayed
	}
	if status.CurrentRound > status.TotalRounds {
		status.CurrentRound = status.TotalRounds
	}

	status.Complete = status.MinPlayed >= status.TotalRounds &&
		len(pending) == 0 && len(inProgress) == 0
	return status
}

// NextRoundPairings pairs adjacent agents in standings order, preferring
// opponents not yet faced. When every remaining candidate is a rematch the
// top pair plays again rather than stalling the round. Odd fields leave the
// lowest-ranked unpaired agent with a bye.
func NextRoundPairings(standings []models.SwissStanding) []models.Pairing {
	played := make(map[string]map[string]bool, len(standings))
	for _, s := range standings {
		played[s.AgentID] = make(map[string]bool, len(s.Opponents))
		for _, opp := range s.Opponents {
			played[s.AgentID][opp] = true
		}
	}

	remaining := make([]string, 0, len(standings))
	for _, s := range standings {
		remaining = append(remaining, s.AgentID)
	}

	var pairings []models.Pairing
	for len(remaining) >= 2 {
		a := remaining[0]
		pick := -1
		for i := 1; i < len(remaining); i++ {
			if !played[a][remaining[i]] {
				pick = i
				break
			}
		}
		rematch := pick == -1
		if rematch {
			pick = 1
		}
		pairings = append(pairings, models.Pairing{
			AgentAID: a,
			AgentBID: remaining[pick],
			Rematch:  rematch,
		})

		next := make([]string, 0, len(remaining)-2)
		next = append(next, remaining[1:pick]...)
		next = append(next, remaining[pick+1:]...)
		remaining = next
	}
	return pairings
}
