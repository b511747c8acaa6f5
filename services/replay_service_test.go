package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-arena-system/models"
)

func bufferedGame(id string, moves int) models.BufferedGame {
	game := models.BufferedGame{
		ID:     id,
		AgentA: models.Participant{ID: "a", Name: "Alpha"},
		AgentB: models.Participant{ID: "b", Name: "Beta"},
	}
	for i := 1; i <= moves; i++ {
		game.Moves = append(game.Moves, models.MoveSnapshot{
			MoveNumber: i,
			Board:      fmt.Sprintf("board-%d", i),
		})
	}
	return game
}

func newTestReplayService() *ReplayService {
	svc := NewReplayService()
	svc.Clock = clockwork.NewFakeClock()
	return svc
}

func TestReplayIngestValidation(t *testing.T) {
	svc := newTestReplayService()
	assert.Error(t, svc.Ingest(models.BufferedGame{}))
	assert.Error(t, svc.Ingest(models.BufferedGame{ID: "g1"}))
	assert.NoError(t, svc.Ingest(bufferedGame("g1", 3)))
}

func TestReplayEmitsEveryMoveThenCompletion(t *testing.T) {
	svc := newTestReplayService()
	require.NoError(t, svc.Ingest(bufferedGame("g1", 5)))

	cursor, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)

	var types []string
	for {
		event, done := svc.TickReplay(cursor)
		types = append(types, event.Type)
		if done {
			break
		}
	}

	// k moves produce k move events plus one completion.
	require.Len(t, types, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(t, models.EventMove, types[i])
	}
	assert.Equal(t, models.EventMatchComplete, types[5])

	game, ok := svc.Get("g1")
	require.True(t, ok)
	assert.True(t, game.Completed)
}

func TestReplayMovesArriveInOrder(t *testing.T) {
	svc := newTestReplayService()
	require.NoError(t, svc.Ingest(bufferedGame("g1", 3)))

	cursor, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		event, done := svc.TickReplay(cursor)
		assert.False(t, done)
		require.NotNil(t, event.Move)
		assert.Equal(t, want, event.Move.MoveNumber)
	}
}

func TestReplayCursorsAreIndependent(t *testing.T) {
	svc := newTestReplayService()
	require.NoError(t, svc.Ingest(bufferedGame("g1", 3)))

	c1, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)
	c2, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)

	// Advancing one spectator does not move the other.
	svc.TickReplay(c1)
	svc.TickReplay(c1)

	event, done := svc.TickReplay(c2)
	assert.False(t, done)
	require.NotNil(t, event.Move)
	assert.Equal(t, 1, event.Move.MoveNumber)
}

func TestReplayGameStaysAfterCompletion(t *testing.T) {
	svc := newTestReplayService()
	require.NoError(t, svc.Ingest(bufferedGame("g1", 2)))

	cursor, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)
	for {
		if _, done := svc.TickReplay(cursor); done {
			break
		}
	}

	// Completed games stay replayable.
	again, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)
	event, done := svc.TickReplay(again)
	assert.False(t, done)
	assert.Equal(t, models.EventMove, event.Type)
}

func TestReplayReingestKeepsCompletedFlag(t *testing.T) {
	svc := newTestReplayService()
	require.NoError(t, svc.Ingest(bufferedGame("g1", 2)))
	svc.MarkCompleted("g1")

	require.NoError(t, svc.Ingest(bufferedGame("g1", 4)))
	game, ok := svc.Get("g1")
	require.True(t, ok)
	assert.True(t, game.Completed)
	assert.Len(t, game.Moves, 4)
}

func TestReplayUnknownGame(t *testing.T) {
	svc := newTestReplayService()
	_, err := svc.NewReplayCursor("missing")
	assert.Error(t, err)

	_, ok := svc.Get("missing")
	assert.False(t, ok)
}

func TestReplayPacingFollowsInterval(t *testing.T) {
	svc := newTestReplayService()
	clock := svc.Clock.(*clockwork.FakeClock)
	require.NoError(t, svc.Ingest(bufferedGame("g1", 3)))

	cursor, err := svc.NewReplayCursor("g1")
	require.NoError(t, err)

	// Same consumption loop the stream handler runs: one TickReplay per
	// ticker fire.
	events := make(chan models.LiveEvent, 8)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := svc.Clock.NewTicker(ReplayInterval)
		defer ticker.Stop()
		for range ticker.Chan() {
			event, done := svc.TickReplay(cursor)
			events <- event
			if done {
				return
			}
		}
	}()

	receive := func() models.LiveEvent {
		select {
		case ev := <-events:
			return ev
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
			return models.LiveEvent{}
		}
	}
	assertQuiet := func() {
		select {
		case ev := <-events:
			t.Fatalf("unexpected %s event before the interval elapsed", ev.Type)
		default:
		}
	}

	// Half an interval releases nothing.
	clock.BlockUntil(1)
	clock.Advance(ReplayInterval / 2)
	assertQuiet()

	// The remaining half completes the first interval: exactly one move.
	clock.Advance(ReplayInterval / 2)
	ev := receive()
	require.NotNil(t, ev.Move)
	assert.Equal(t, 1, ev.Move.MoveNumber)

	// Every further interval releases exactly one event.
	for want := 2; want <= 3; want++ {
		clock.BlockUntil(1)
		assertQuiet()
		clock.Advance(ReplayInterval)
		ev := receive()
		require.NotNil(t, ev.Move)
		assert.Equal(t, want, ev.Move.MoveNumber)
	}

	clock.BlockUntil(1)
	assertQuiet()
	clock.Advance(ReplayInterval)
	assert.Equal(t, models.EventMatchComplete, receive().Type)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("replay loop did not close after completion")
	}
}

func TestReplayListNewestFirst(t *testing.T) {
	svc := newTestReplayService()
	clock := svc.Clock.(*clockwork.FakeClock)

	require.NoError(t, svc.Ingest(bufferedGame("old", 1)))
	clock.Advance(ReplayInterval)
	require.NoError(t, svc.Ingest(bufferedGame("new", 1)))

	games := svc.List()
	require.Len(t, games, 2)
	assert.Equal(t, "new", games[0].ID)
	assert.Equal(t, "old", games[1].ID)
}
