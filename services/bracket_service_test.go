package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-arena-system/models"
)

func ratedAgents(n int) []models.Agent {
	agents := make([]models.Agent, 0, n)
	for i := 0; i < n; i++ {
		agents = append(agents, models.Agent{
			ID:          fmt.Sprintf("agent-%02d", i),
			DisplayName: fmt.Sprintf("Agent %02d", i),
			Rating:      1000 + float64(i)*50,
		})
	}
	return agents
}

func TestPartitionAgentsQuartiles(t *testing.T) {
	assignment := PartitionAgents("t1", ratedAgents(10))

	assert.Len(t, assignment.Challenger, 3)
	assert.Len(t, assignment.Contender, 5)
	assert.Len(t, assignment.Elite, 2)
	assert.Equal(t, 10, assignment.Size())

	// Bottom quartile holds the lowest ratings, top quartile the highest.
	assert.Contains(t, assignment.Challenger, "agent-00")
	assert.Contains(t, assignment.Elite, "agent-09")
}

func TestPartitionAgentsSmallFieldAllContender(t *testing.T) {
	assignment := PartitionAgents("t1", ratedAgents(7))

	assert.Empty(t, assignment.Challenger)
	assert.Len(t, assignment.Contender, 7)
	assert.Empty(t, assignment.Elite)

	assert.False(t, assignment.Active(models.BracketChallenger))
	assert.True(t, assignment.Active(models.BracketContender))
	assert.False(t, assignment.Active(models.BracketElite))
}

func TestPartitionAgentsDisjoint(t *testing.T) {
	assignment := PartitionAgents("t1", ratedAgents(23))

	seen := make(map[string]bool)
	for _, bracket := range models.BracketIDs {
		for _, id := range assignment.Members(bracket) {
			require.False(t, seen[id], "agent %s assigned twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 23)
}

func TestPartitionAgentsDedupesToHighestRating(t *testing.T) {
	agents := ratedAgents(10)
	// Duplicate entry for agent-00 with a rating that belongs in elite.
	agents = append(agents, models.Agent{
		ID:          "agent-00",
		DisplayName: "Agent 00",
		Rating:      2000,
	})

	assignment := PartitionAgents("t1", agents)
	assert.Equal(t, 10, assignment.Size())
	assert.Contains(t, assignment.Elite, "agent-00")
	assert.NotContains(t, assignment.Challenger, "agent-00")
}

func TestPartitionAgentsAscendingWithinBrackets(t *testing.T) {
	assignment := PartitionAgents("t1", ratedAgents(12))

	// Member lists stay ordered ascending by rating, so the boundary
	// between brackets is the boundary between consecutive ids.
	var flat []string
	flat = append(flat, assignment.Challenger...)
	flat = append(flat, assignment.Contender...)
	flat = append(flat, assignment.Elite...)
	require.Len(t, flat, 12)
	for i := 1; i < len(flat); i++ {
		assert.Less(t, flat[i-1], flat[i])
	}
}

func TestPartitionAgentsEmpty(t *testing.T) {
	assignment := PartitionAgents("t1", nil)
	assert.Equal(t, 0, assignment.Size())
	for _, bracket := range models.BracketIDs {
		assert.False(t, assignment.Active(bracket))
	}
}
