package services

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"

	"agent-arena-system/models"
)

// ReplayInterval is the fixed cadence of buffered playback: one move per
// interval per connection, regardless of the original move durations.
const ReplayInterval = 250 * time.Millisecond

// ReplayService owns an in-memory registry of finished games and replays
// them to spectators at a fixed cadence. Games are never evicted; a replay
// that finished at least once is marked completed but stays replayable.
type ReplayService struct {
	Clock clockwork.Clock

	mu    sync.RWMutex
	games map[string]*models.BufferedGame
}

func NewReplayService() *ReplayService {
	return &ReplayService{
		Clock: clockwork.NewRealClock(),
		games: make(map[string]*models.BufferedGame),
	}
}

// Ingest buffers a finished game for replay. Re-ingesting an id refreshes
// the record but keeps its completed flag, so a repeated upload cannot
// un-mark a game that was already played out.
func (s *ReplayService) Ingest(game models.BufferedGame) error {
	if game.ID == "" {
		return fmt.Errorf("buffered game missing id")
	}
	if len(game.Moves) == 0 {
		return fmt.Errorf("buffered game %s has no moves", game.ID)
	}

	game.BufferedAt = s.Clock.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.games[game.ID]; ok {
		game.Completed = prev.Completed
	}
	s.games[game.ID] = &game
	return nil
}

// Get returns a copy of one buffered game.
func (s *ReplayService) Get(id string) (models.BufferedGame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return models.BufferedGame{}, false
	}
	return *game, true
}

// List returns all buffered games, newest first.
func (s *ReplayService) List() []models.BufferedGame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BufferedGame, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BufferedAt.After(out[j].BufferedAt)
	})
	return out
}

// MarkCompleted records that the game has been played out in full at least
// once. The game stays in the registry.
func (s *ReplayService) MarkCompleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if game, ok := s.games[id]; ok {
		game.Completed = true
	}
}

// ReplayCursor is one connection's position inside a buffered game. Cursors
// are independent: two spectators replaying the same game each get their own
// cadence and position.
type ReplayCursor struct {
	game  models.BufferedGame
	index int
}

// NewReplayCursor starts a replay from the first move.
func (s *ReplayService) NewReplayCursor(id string) (*ReplayCursor, error) {
	game, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("no buffered game %s", id)
	}
	return &ReplayCursor{game: game}, nil
}

// TickReplay emits the next move, or the completion event once every move
// has been sent. A game with k moves yields exactly k move events followed
// by one match_complete.
func (s *ReplayService) TickReplay(c *ReplayCursor) (models.LiveEvent, bool) {
	now := s.Clock.Now().UTC()

	if c.index < len(c.game.Moves) {
		move := c.game.Moves[c.index]
		c.index++
		return models.LiveEvent{
			Type:      models.EventMove,
			Timestamp: now,
			MatchID:   c.game.ID,
			Move:      &move,
		}, false
	}

	s.MarkCompleted(c.game.ID)
	return models.LiveEvent{
		Type:      models.EventMatchComplete,
		Timestamp: now,
		MatchID:   c.game.ID,
		Result: &models.MatchResult{
			Winner:      c.game.Winner,
			Termination: c.game.Termination,
			MoveCount:   len(c.game.Moves),
		},
	}, true
}

// IngestGame receives a finished game from the match runner and buffers it.
func (s *ReplayService) IngestGame(c *fiber.Ctx) error {
	var body struct {
		ID          string                `json:"id"`
		AgentA      models.Participant    `json:"agent_a"`
		AgentB      models.Participant    `json:"agent_b"`
		Winner      *string               `json:"winner"`
		Termination string                `json:"termination"`
		Moves       []models.MoveSnapshot `json:"moves"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	game := models.BufferedGame{
		ID:          body.ID,
		AgentA:      body.AgentA,
		AgentB:      body.AgentB,
		Winner:      body.Winner,
		Termination: body.Termination,
		Moves:       body.Moves,
	}
	if err := s.Ingest(game); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("replay: buffered game %s (%d moves)", game.ID, len(game.Moves))
	return c.Status(201).JSON(fiber.Map{"id": game.ID, "moves": len(game.Moves)})
}

// ListGames returns the replay registry, newest first.
func (s *ReplayService) ListGames(c *fiber.Ctx) error {
	games := s.List()
	out := make([]fiber.Map, 0, len(games))
	for _, g := range games {
		out = append(out, fiber.Map{
			"id":          g.ID,
			"agent_a":     g.AgentA,
			"agent_b":     g.AgentB,
			"winner":      g.Winner,
			"termination": g.Termination,
			"moves":       len(g.Moves),
			"completed":   g.Completed,
			"buffered_at": g.BufferedAt,
		})
	}
	return c.JSON(fiber.Map{"games": out})
}
