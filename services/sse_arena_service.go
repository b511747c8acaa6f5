package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"agent-arena-system/models"
)

// StreamBracket is the spectator SSE endpoint for one bracket. All stream
// state lives in a per-connection cursor; the database is polled every tick
// and deltas are pushed as events.
func (s *LiveService) StreamBracket(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	bracket := c.Params("bracket")
	requestedMatch := c.Query("match_id")

	if !models.ValidBracket(bracket) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown bracket: " + bracket,
		})
	}

	cursor, err := s.NewCursor(tournamentID, bracket, requestedMatch)
	if err != nil {
		log.Printf("SSE setup error for %s/%s: %v", tournamentID, bracket, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open bracket stream",
		})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := s.Clock.NewTicker(LiveTickInterval)
		defer ticker.Stop()

		connected := models.LiveEvent{
			Type:      models.EventConnected,
			Timestamp: s.Clock.Now().UTC(),
			Bracket:   bracket,
		}
		if !writeEvents(w, []models.LiveEvent{connected}) {
			return
		}

		for {
			select {
			case <-ticker.Chan():
				events, done, err := s.Tick(cursor)
				if err != nil {
					// Keep the connection alive; next tick retries.
					log.Printf("SSE tick error for %s/%s: %v", tournamentID, bracket, err)
					continue
				}
				if !writeEvents(w, events) {
					// Client disconnected
					return
				}
				if done {
					return
				}

			case <-ctx.Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}

// StreamMatch is the single-match SSE endpoint. It tracks a spectator count
// and tears down after the match ends or the wall-clock ceiling passes.
func (s *LiveService) StreamMatch(c *fiber.Ctx) error {
	matchID := c.Params("match_id")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()

	cursor, spectators, err := s.NewMatchCursor(matchID)
	if err != nil {
		// An unknown match is a clean terminal event, not a stream error.
		log.Printf("SSE setup for match %s: %v", matchID, err)
		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			writeEvents(w, []models.LiveEvent{{
				Type:      models.EventNoData,
				Timestamp: s.Clock.Now().UTC(),
				MatchID:   matchID,
				Message:   "match not found",
			}})
		})
		return nil
	}
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		// The counter must come back down on every exit path.
		defer s.ReleaseMatchCursor(cursor)

		ticker := s.Clock.NewTicker(LiveTickInterval)
		defer ticker.Stop()

		connected := models.LiveEvent{
			Type:       models.EventConnected,
			Timestamp:  s.Clock.Now().UTC(),
			MatchID:    matchID,
			Spectators: spectators,
		}
		if !writeEvents(w, []models.LiveEvent{connected}) {
			return
		}

		for {
			select {
			case <-ticker.Chan():
				events, done, err := s.TickMatch(cursor)
				if err != nil {
					log.Printf("SSE tick error for match %s: %v", matchID, err)
					continue
				}
				if !writeEvents(w, events) {
					return
				}
				if done {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// StreamReplay plays a buffered game back at the fixed replay cadence.
func (s *ReplayService) StreamReplay(c *fiber.Ctx) error {
	gameID := c.Params("game_id")

	cursor, err := s.NewReplayCursor(gameID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No buffered game: " + gameID,
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.Context()
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := s.Clock.NewTicker(ReplayInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				event, done := s.TickReplay(cursor)
				if !writeEvents(w, []models.LiveEvent{event}) {
					return
				}
				if done {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// writeEvents pushes events over the wire and reports whether the client is
// still there. A failed flush means the connection is gone.
func writeEvents(w *bufio.Writer, events []models.LiveEvent) bool {
	for _, ev := range events {
		payload, _ := json.Marshal(ev)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
	}
	if len(events) == 0 {
		return true
	}
	return w.Flush() == nil
}
