package services

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"

	"agent-arena-system/models"
)

// StandingsService exposes the computed Swiss views over HTTP. All reads,
// no writes: standings and round state are derived from match history on
// every request rather than stored.
type StandingsService struct {
	Store    HistoryStore
	Brackets *BracketService
}

func NewStandingsService(store HistoryStore, brackets *BracketService) *StandingsService {
	return &StandingsService{Store: store, Brackets: brackets}
}

// GetBrackets returns the bracket assignment for a tournament with per
// bracket sizes and active flags.
func (s *StandingsService) GetBrackets(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	assignment, err := s.Brackets.Assignment(tournamentID)
	if err != nil {
		log.Printf("standings: resolve brackets for %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve bracket assignment",
		})
	}

	brackets := make([]fiber.Map, 0, len(models.BracketIDs))
	for _, id := range models.BracketIDs {
		members := assignment.Members(id)
		brackets = append(brackets, fiber.Map{
			"bracket": id,
			"size":    len(members),
			"active":  assignment.Active(id),
			"members": members,
		})
	}

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"total_agents":  assignment.Size(),
		"brackets":      brackets,
	})
}

// GetStandings returns ranked Swiss standings for one bracket, joined with
// agent display info.
func (s *StandingsService) GetStandings(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	bracket := c.Params("bracket")
	if !models.ValidBracket(bracket) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown bracket: " + bracket,
		})
	}

	assignment, err := s.Brackets.Assignment(tournamentID)
	if err != nil {
		log.Printf("standings: resolve brackets for %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve bracket assignment",
		})
	}
	members := assignment.Members(bracket)

	completed, err := s.Store.CompletedMatches(members)
	if err != nil {
		log.Printf("standings: load completed matches for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load match history",
		})
	}
	standings := ComputeStandings(members, completed)

	agents, err := s.Store.AgentsByIDs(members)
	if err != nil {
		log.Printf("standings: load agents for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load agents",
		})
	}
	info := make(map[string]models.Agent, len(agents))
	for _, a := range agents {
		info[a.ID] = a
	}

	rows := make([]fiber.Map, 0, len(standings))
	for rank, st := range standings {
		agent := info[st.AgentID]
		rows = append(rows, fiber.Map{
			"rank":           rank + 1,
			"agent_id":       st.AgentID,
			"name":           agent.DisplayName,
			"handle":         slug.Make(agent.DisplayName),
			"rating":         agent.Rating,
			"points":         st.Points,
			"matches_played": st.MatchesPlayed,
			"tiebreak":       st.Tiebreak,
		})
	}

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"bracket":       bracket,
		"standings":     rows,
	})
}

// GetBracketStatus reports round position and completion for one bracket.
func (s *StandingsService) GetBracketStatus(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	bracket := c.Params("bracket")
	if !models.ValidBracket(bracket) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown bracket: " + bracket,
		})
	}

	assignment, err := s.Brackets.Assignment(tournamentID)
	if err != nil {
		log.Printf("standings: resolve brackets for %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve bracket assignment",
		})
	}
	members := assignment.Members(bracket)

	completed, err := s.Store.CompletedMatches(members)
	if err != nil {
		log.Printf("standings: load completed matches for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load match history",
		})
	}
	pending, err := s.Store.PendingMatches(members)
	if err != nil {
		log.Printf("standings: load pending matches for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load match queue",
		})
	}
	inProgress, err := s.Store.InProgressMatches(members)
	if err != nil {
		log.Printf("standings: load in-progress matches for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load live matches",
		})
	}

	standings := ComputeStandings(members, completed)
	status := ComputeBracketStatus(standings, pending, inProgress)

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"bracket":       bracket,
		"total_rounds":  status.TotalRounds,
		"current_round": status.CurrentRound,
		"transitioning": status.Transition,
		"complete":      status.Complete,
	})
}

// GetNextPairings previews the pairings for the upcoming round.
func (s *StandingsService) GetNextPairings(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	bracket := c.Params("bracket")
	if !models.ValidBracket(bracket) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown bracket: " + bracket,
		})
	}

	assignment, err := s.Brackets.Assignment(tournamentID)
	if err != nil {
		log.Printf("standings: resolve brackets for %s: %v", tournamentID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve bracket assignment",
		})
	}
	members := assignment.Members(bracket)

	completed, err := s.Store.CompletedMatches(members)
	if err != nil {
		log.Printf("standings: load completed matches for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load match history",
		})
	}
	standings := ComputeStandings(members, completed)
	pairings := NextRoundPairings(standings)

	return c.JSON(fiber.Map{
		"tournament_id": tournamentID,
		"bracket":       bracket,
		"pairings":      pairings,
	})
}
