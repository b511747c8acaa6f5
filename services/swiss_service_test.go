package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-arena-system/models"
)

func strPtr(s string) *string { return &s }

func completedMatch(a, b string, winner *string) models.Match {
	return models.Match{
		AgentAID: a,
		AgentBID: b,
		Kind:     models.MatchKindTournament,
		Status:   models.MatchStatusCompleted,
		Winner:   winner,
	}
}

func TestTotalRounds(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 3},
		{5, 3},
		{8, 3},
		{9, 4},
		{16, 4},
		{17, 5},
		{32, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TotalRounds(tc.n), "n=%d", tc.n)
	}
}

func TestComputeStandingsScoring(t *testing.T) {
	members := []string{"a", "b", "c", "d"}
	matches := []models.Match{
		completedMatch("a", "b", strPtr(models.WinnerAgentA)),
		completedMatch("c", "d", nil), // draw
	}

	standings := ComputeStandings(members, matches)
	require.Len(t, standings, 4)

	byID := make(map[string]models.SwissStanding)
	for _, s := range standings {
		byID[s.AgentID] = s
	}

	assert.Equal(t, 1.0, byID["a"].Points)
	assert.Equal(t, 0.0, byID["b"].Points)
	assert.Equal(t, 0.5, byID["c"].Points)
	assert.Equal(t, 0.5, byID["d"].Points)

	// Total points equals one point per completed match.
	var total float64
	for _, s := range standings {
		total += s.Points
	}
	assert.Equal(t, float64(len(matches)), total)
}

func TestComputeStandingsBuchholz(t *testing.T) {
	members := []string{"a", "b", "c", "d"}
	matches := []models.Match{
		completedMatch("a", "b", strPtr(models.WinnerAgentA)), // a=1, b=0
		completedMatch("c", "d", nil),                         // c=0.5, d=0.5
		completedMatch("a", "c", strPtr(models.WinnerAgentA)), // a=2, c stays 0.5
	}

	standings := ComputeStandings(members, matches)
	byID := make(map[string]models.SwissStanding)
	for _, s := range standings {
		byID[s.AgentID] = s
	}

	// a faced b (0) and c (0.5).
	assert.Equal(t, 0.5, byID["a"].Tiebreak)
	// b faced only a (2).
	assert.Equal(t, 2.0, byID["b"].Tiebreak)
	// c faced d (0.5) and a (2).
	assert.Equal(t, 2.5, byID["c"].Tiebreak)

	assert.Equal(t, "a", standings[0].AgentID)
}

func TestComputeStandingsRematchRule(t *testing.T) {
	members := []string{"a", "b"}
	matches := []models.Match{
		completedMatch("a", "b", strPtr(models.WinnerAgentA)),
		completedMatch("b", "a", strPtr(models.WinnerAgentA)), // rematch, b wins
	}

	standings := ComputeStandings(members, matches)
	byID := make(map[string]models.SwissStanding)
	for _, s := range standings {
		byID[s.AgentID] = s
	}

	// Points from the rematch still count.
	assert.Equal(t, 1.0, byID["a"].Points)
	assert.Equal(t, 1.0, byID["b"].Points)

	// But only the first encounter counts toward progress and opponents.
	assert.Equal(t, 1, byID["a"].MatchesPlayed)
	assert.Equal(t, 1, byID["b"].MatchesPlayed)
	assert.Equal(t, []string{"b"}, byID["a"].Opponents)
	assert.Equal(t, []string{"a"}, byID["b"].Opponents)
}

func TestComputeStandingsIgnoresOutsiders(t *testing.T) {
	members := []string{"a", "b"}
	matches := []models.Match{
		completedMatch("a", "x", strPtr(models.WinnerAgentA)), // x not a member
		completedMatch("a", "b", nil),
	}

	standings := ComputeStandings(members, matches)
	byID := make(map[string]models.SwissStanding)
	for _, s := range standings {
		byID[s.AgentID] = s
	}
	assert.Equal(t, 0.5, byID["a"].Points)
	assert.Equal(t, 1, byID["a"].MatchesPlayed)
}

func TestComputeStandingsTieOrderStable(t *testing.T) {
	members := []string{"zed", "amy"}
	standings := ComputeStandings(members, nil)
	require.Len(t, standings, 2)
	// Everything level, so agent id breaks the tie.
	assert.Equal(t, "amy", standings[0].AgentID)
	assert.Equal(t, "zed", standings[1].AgentID)
}

func TestComputeBracketStatusTransition(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", MatchesPlayed: 1},
		{AgentID: "b", MatchesPlayed: 1},
		{AgentID: "c", MatchesPlayed: 1},
		{AgentID: "d", MatchesPlayed: 1},
	}
	status := ComputeBracketStatus(standings, nil, nil)
	assert.Equal(t, 3, status.TotalRounds)
	assert.True(t, status.Transition)
	assert.Equal(t, 2, status.CurrentRound)
	assert.False(t, status.Complete)
}

func TestComputeBracketStatusMidRound(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", MatchesPlayed: 2},
		{AgentID: "b", MatchesPlayed: 1},
		{AgentID: "c", MatchesPlayed: 2},
		{AgentID: "d", MatchesPlayed: 1},
	}
	status := ComputeBracketStatus(standings, nil, nil)
	assert.False(t, status.Transition)
	assert.Equal(t, 2, status.CurrentRound)
}

func TestComputeBracketStatusComplete(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", MatchesPlayed: 3},
		{AgentID: "b", MatchesPlayed: 3},
		{AgentID: "c", MatchesPlayed: 3},
		{AgentID: "d", MatchesPlayed: 3},
	}
	status := ComputeBracketStatus(standings, nil, nil)
	assert.True(t, status.Complete)
	assert.Equal(t, 3, status.CurrentRound)

	// A pending match holds completion open even when everyone has the
	// full round count.
	pending := []models.Match{{AgentAID: "a", AgentBID: "b"}}
	status = ComputeBracketStatus(standings, pending, nil)
	assert.False(t, status.Complete)
}

func TestComputeBracketStatusStuckAgent(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", MatchesPlayed: 3},
		{AgentID: "b", MatchesPlayed: 3},
		{AgentID: "c", MatchesPlayed: 3},
		{AgentID: "d", MatchesPlayed: 1},
	}
	status := ComputeBracketStatus(standings, nil, nil)
	assert.False(t, status.Complete)
}

func TestComputeBracketStatusEmpty(t *testing.T) {
	status := ComputeBracketStatus(nil, nil, nil)
	assert.Equal(t, 0, status.TotalRounds)
	assert.True(t, status.Complete)
}

func TestNextRoundPairingsAvoidsRematches(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", Points: 2, Opponents: []string{"b"}},
		{AgentID: "b", Points: 1.5, Opponents: []string{"a"}},
		{AgentID: "c", Points: 1, Opponents: []string{"d"}},
		{AgentID: "d", Points: 0.5, Opponents: []string{"c"}},
	}
	pairings := NextRoundPairings(standings)
	require.Len(t, pairings, 2)

	assert.Equal(t, "a", pairings[0].AgentAID)
	assert.Equal(t, "c", pairings[0].AgentBID)
	assert.False(t, pairings[0].Rematch)

	assert.Equal(t, "b", pairings[1].AgentAID)
	assert.Equal(t, "d", pairings[1].AgentBID)
	assert.False(t, pairings[1].Rematch)
}

func TestNextRoundPairingsFallsBackToRematch(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a", Opponents: []string{"b"}},
		{AgentID: "b", Opponents: []string{"a"}},
	}
	pairings := NextRoundPairings(standings)
	require.Len(t, pairings, 1)
	assert.True(t, pairings[0].Rematch)
}

func TestNextRoundPairingsOddFieldLeavesBye(t *testing.T) {
	standings := []models.SwissStanding{
		{AgentID: "a"}, {AgentID: "b"}, {AgentID: "c"},
	}
	pairings := NextRoundPairings(standings)
	require.Len(t, pairings, 1)
}
