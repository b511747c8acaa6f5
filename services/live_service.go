package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/jonboulle/clockwork"

	"agent-arena-system/models"
)

const (
	// LiveTickInterval is the polling cadence behind every spectator stream.
	LiveTickInterval = 300 * time.Millisecond

	// MatchStreamCeiling bounds a single-match stream; a game that outlives
	// it gets a timeout event instead of an open-ended connection.
	MatchStreamCeiling = 3 * time.Minute

	// RecentCompletionWindow is how long a finished match stays visible in
	// idle and queue_update payloads.
	RecentCompletionWindow = 30 * time.Second
)

// LiveService turns polled database state into ordered push events. The
// per-connection state machine lives in LiveCursor; Tick is a pure-ish
// generator over the HistoryStore so tests can script stores and clocks.
type LiveService struct {
	Store    HistoryStore
	Brackets *BracketService
	Clock    clockwork.Clock

	mu         sync.Mutex
	spectators map[string]int
}

func NewLiveService(store HistoryStore, brackets *BracketService) *LiveService {
	return &LiveService{
		Store:      store,
		Brackets:   brackets,
		Clock:      clockwork.NewRealClock(),
		spectators: make(map[string]int),
	}
}

// LiveCursor is one spectator connection's memory between ticks.
type LiveCursor struct {
	TournamentID string
	Bracket      string
	Members      []string

	// RequestedMatchID pins focus to a specific game while it runs.
	RequestedMatchID string

	focusedMatchID  string
	lastSeenMove    int
	lastKnownStatus string

	agents map[string]models.Participant
	empty  bool
}

// NewCursor validates the bracket, resolves the pinned membership and caches
// agent display info for the lifetime of the connection.
func (s *LiveService) NewCursor(tournamentID, bracket, requestedMatchID string) (*LiveCursor, error) {
	if !models.ValidBracket(bracket) {
		return nil, fmt.Errorf("unknown bracket %q", bracket)
	}

	assignment, err := s.Brackets.Assignment(tournamentID)
	if err != nil {
		return nil, fmt.Errorf("resolve bracket membership: %w", err)
	}
	members := assignment.Members(bracket)

	cursor := &LiveCursor{
		TournamentID:     tournamentID,
		Bracket:          bracket,
		Members:          members,
		RequestedMatchID: requestedMatchID,
		lastSeenMove:     -1,
		empty:            len(members) == 0,
	}
	if cursor.empty {
		return cursor, nil
	}

	agents, err := s.Store.AgentsByIDs(members)
	if err != nil {
		return nil, fmt.Errorf("load bracket agents: %w", err)
	}
	cursor.agents = make(map[string]models.Participant, len(agents))
	for _, a := range agents {
		cursor.agents[a.ID] = models.Participant{
			ID:     a.ID,
			Name:   a.DisplayName,
			Handle: slug.Make(a.DisplayName),
			Rating: a.Rating,
		}
	}
	return cursor, nil
}

// Tick runs one polling pass and returns the events to push, in order, plus
// whether the stream is finished. A non-nil error means this pass read
// nothing useful; the caller logs it and keeps the connection alive.
func (s *LiveService) Tick(c *LiveCursor) ([]models.LiveEvent, bool, error) {
	now := s.Clock.Now().UTC()

	if c.empty {
		return []models.LiveEvent{{
			Type:      models.EventNoData,
			Timestamp: now,
			Bracket:   c.Bracket,
			Message:   "bracket has no members",
		}}, true, nil
	}

	inProgress, err := s.Store.InProgressMatches(c.Members)
	if err != nil {
		return nil, false, fmt.Errorf("poll in-progress matches: %w", err)
	}

	events := []models.LiveEvent{{
		Type:      models.EventLiveMatches,
		Timestamp: now,
		Bracket:   c.Bracket,
		Matches:   c.summaries(inProgress),
	}}

	focus := s.pickFocus(c, inProgress)
	switch {
	case focus != "" && focus != c.focusedMatchID:
		ev, err := s.startFocus(c, focus, inProgress, now)
		if err != nil {
			return nil, false, err
		}
		events = append(events, ev)

	case focus != "":
		moves, err := s.Store.StatesAfter(focus, c.lastSeenMove)
		if err != nil {
			return nil, false, fmt.Errorf("poll moves for match %s: %w", focus, err)
		}
		events = append(events, s.moveEvents(c, focus, moves, now)...)

	case c.focusedMatchID != "" && c.lastKnownStatus == models.MatchStatusInProgress:
		evs, err := s.finishFocus(c, now)
		if err != nil {
			return nil, false, err
		}
		events = append(events, evs...)

	default:
		idle, done, err := s.idleEvents(c, now)
		if err != nil {
			return nil, false, err
		}
		events = append(events, idle...)
		if done {
			return events, true, nil
		}
	}

	// Queue movement goes out on every tick that has any, even though the
	// idle payload may carry the same snapshot.
	queueEv, err := s.queueUpdate(c, now)
	if err != nil {
		return nil, false, err
	}
	if queueEv != nil {
		events = append(events, *queueEv)
	}
	return events, false, nil
}

// pickFocus prefers the explicitly requested match while it is actually
// running, then the earliest-started in-progress game, then nothing.
func (s *LiveService) pickFocus(c *LiveCursor, inProgress []models.Match) string {
	if c.RequestedMatchID != "" {
		for _, m := range inProgress {
			if m.ID == c.RequestedMatchID {
				return m.ID
			}
		}
	}
	if len(inProgress) > 0 {
		return inProgress[0].ID
	}
	return ""
}

// startFocus switches the cursor to a new match and replays its full backlog
// in a single match_start event, so late-joining spectators see every move.
func (s *LiveService) startFocus(c *LiveCursor, focus string, inProgress []models.Match, now time.Time) (models.LiveEvent, error) {
	states, err := s.Store.StatesForMatch(focus)
	if err != nil {
		return models.LiveEvent{}, fmt.Errorf("load backlog for match %s: %w", focus, err)
	}

	backlog := make([]models.MoveSnapshot, 0, len(states))
	last := -1
	for _, st := range states {
		backlog = append(backlog, snapshot(st))
		if st.MoveNumber > last {
			last = st.MoveNumber
		}
	}

	var summary *models.MatchSummary
	for _, m := range inProgress {
		if m.ID == focus {
			sum := c.summary(m)
			summary = &sum
			break
		}
	}

	c.focusedMatchID = focus
	c.lastSeenMove = last
	c.lastKnownStatus = models.MatchStatusInProgress

	return models.LiveEvent{
		Type:      models.EventMatchStart,
		Timestamp: now,
		Bracket:   c.Bracket,
		MatchID:   focus,
		Match:     summary,
		Backlog:   backlog,
	}, nil
}

// moveEvents emits one event per unseen move, ascending, and advances the
// cursor so a move is never sent twice on this connection.
func (s *LiveService) moveEvents(c *LiveCursor, matchID string, states []models.GameState, now time.Time) []models.LiveEvent {
	events := make([]models.LiveEvent, 0, len(states))
	for _, st := range states {
		if st.MoveNumber <= c.lastSeenMove {
			continue
		}
		snap := snapshot(st)
		events = append(events, models.LiveEvent{
			Type:      models.EventMove,
			Timestamp: now,
			Bracket:   c.Bracket,
			MatchID:   matchID,
			Move:      &snap,
		})
		c.lastSeenMove = st.MoveNumber
	}
	return events
}

// finishFocus handles the match we were watching leaving the in-progress
// set: flush whatever moves landed after our cursor, report the result, and
// forget the focus.
func (s *LiveService) finishFocus(c *LiveCursor, now time.Time) ([]models.LiveEvent, error) {
	matchID := c.focusedMatchID
	match, err := s.Store.MatchByID(matchID)
	if err != nil {
		return nil, fmt.Errorf("refetch finished match %s: %w", matchID, err)
	}
	if match.Status != models.MatchStatusCompleted {
		// Not actually done, just missing from this tick's roster read.
		// Keep the focus memory and wait for a consistent view.
		return nil, nil
	}

	states, err := s.Store.StatesAfter(matchID, c.lastSeenMove)
	if err != nil {
		return nil, fmt.Errorf("flush moves for match %s: %w", matchID, err)
	}
	events := s.moveEvents(c, matchID, states, now)

	events = append(events, models.LiveEvent{
		Type:      models.EventMatchComplete,
		Timestamp: now,
		Bracket:   c.Bracket,
		MatchID:   matchID,
		Result: &models.MatchResult{
			Winner:      match.Winner,
			Termination: match.Termination,
			MoveCount:   match.MoveCount,
		},
	})

	c.focusedMatchID = ""
	c.lastSeenMove = -1
	c.lastKnownStatus = ""
	return events, nil
}

// idleEvents covers the quiet path: either the bracket is done and the
// stream ends, or spectators get the pending queue and recent results.
func (s *LiveService) idleEvents(c *LiveCursor, now time.Time) ([]models.LiveEvent, bool, error) {
	pending, err := s.Store.PendingMatches(c.Members)
	if err != nil {
		return nil, false, fmt.Errorf("poll pending matches: %w", err)
	}
	completed, err := s.Store.CompletedMatches(c.Members)
	if err != nil {
		return nil, false, fmt.Errorf("poll completed matches: %w", err)
	}

	standings := ComputeStandings(c.Members, completed)
	status := ComputeBracketStatus(standings, pending, nil)
	if status.Complete {
		return []models.LiveEvent{{
			Type:      models.EventBracketComplete,
			Timestamp: now,
			Bracket:   c.Bracket,
		}}, true, nil
	}

	ev := models.LiveEvent{
		Type:      models.EventIdle,
		Timestamp: now,
		Bracket:   c.Bracket,
		Queue:     c.summaries(pending),
	}
	if recent := s.recent(c, now); recent != nil {
		ev.Recent = recent
	}
	return []models.LiveEvent{ev}, false, nil
}

// queueUpdate is pushed whenever there is queue movement worth showing.
func (s *LiveService) queueUpdate(c *LiveCursor, now time.Time) (*models.LiveEvent, error) {
	pending, err := s.Store.PendingMatches(c.Members)
	if err != nil {
		return nil, fmt.Errorf("poll pending matches: %w", err)
	}
	recent := s.recent(c, now)
	if len(pending) == 0 && recent == nil {
		return nil, nil
	}
	return &models.LiveEvent{
		Type:      models.EventQueueUpdate,
		Timestamp: now,
		Bracket:   c.Bracket,
		Queue:     c.summaries(pending),
		Recent:    recent,
	}, nil
}

func (s *LiveService) recent(c *LiveCursor, now time.Time) *models.MatchSummary {
	matches, err := s.Store.RecentlyCompleted(c.Members, now.Add(-RecentCompletionWindow))
	if err != nil || len(matches) == 0 {
		return nil
	}
	sum := c.summary(matches[0])
	return &sum
}

func (c *LiveCursor) summary(m models.Match) models.MatchSummary {
	return models.MatchSummary{
		ID:        m.ID,
		AgentA:    c.agents[m.AgentAID],
		AgentB:    c.agents[m.AgentBID],
		Status:    m.Status,
		MoveCount: m.MoveCount,
		StartedAt: m.StartedAt,
	}
}

func (c *LiveCursor) summaries(matches []models.Match) []models.MatchSummary {
	out := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.summary(m))
	}
	return out
}

func snapshot(st models.GameState) models.MoveSnapshot {
	return models.MoveSnapshot{
		MoveNumber:     st.MoveNumber,
		Board:          st.Board,
		MoveDurationMS: st.MoveDurationMS,
		Notation:       st.Notation,
		Evaluation:     st.Evaluation,
	}
}

// MatchCursor tracks a single-match spectator stream.
type MatchCursor struct {
	MatchID      string
	StartedAt    time.Time
	lastSeenMove int
	agents       map[string]models.Participant
}

// NewMatchCursor registers a spectator on one match and returns the cursor
// plus the updated spectator count.
func (s *LiveService) NewMatchCursor(matchID string) (*MatchCursor, int, error) {
	match, err := s.Store.MatchByID(matchID)
	if err != nil {
		return nil, 0, fmt.Errorf("load match %s: %w", matchID, err)
	}

	agents, err := s.Store.AgentsByIDs([]string{match.AgentAID, match.AgentBID})
	if err != nil {
		return nil, 0, fmt.Errorf("load match agents: %w", err)
	}
	info := make(map[string]models.Participant, len(agents))
	for _, a := range agents {
		info[a.ID] = models.Participant{
			ID:     a.ID,
			Name:   a.DisplayName,
			Handle: slug.Make(a.DisplayName),
			Rating: a.Rating,
		}
	}

	cursor := &MatchCursor{
		MatchID:      matchID,
		StartedAt:    s.Clock.Now(),
		lastSeenMove: -1,
		agents:       info,
	}
	return cursor, s.addSpectator(matchID), nil
}

// ReleaseMatchCursor decrements the spectator count. It is safe on every
// exit path, including double release.
func (s *LiveService) ReleaseMatchCursor(c *MatchCursor) int {
	if c == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.spectators[c.MatchID]
	if n <= 1 {
		delete(s.spectators, c.MatchID)
		return 0
	}
	s.spectators[c.MatchID] = n - 1
	return n - 1
}

func (s *LiveService) addSpectator(matchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spectators[matchID]++
	return s.spectators[matchID]
}

// Spectators reports the current count for a match.
func (s *LiveService) Spectators(matchID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spectators[matchID]
}

// TickMatch advances a single-match stream by one pass. The stream ends on
// match completion or when it outlives MatchStreamCeiling.
func (s *LiveService) TickMatch(c *MatchCursor) ([]models.LiveEvent, bool, error) {
	now := s.Clock.Now().UTC()

	if s.Clock.Since(c.StartedAt) > MatchStreamCeiling {
		return []models.LiveEvent{{
			Type:      models.EventTimeout,
			Timestamp: now,
			MatchID:   c.MatchID,
			Message:   "stream ceiling reached",
		}}, true, nil
	}

	match, err := s.Store.MatchByID(c.MatchID)
	if err != nil {
		return nil, false, fmt.Errorf("poll match %s: %w", c.MatchID, err)
	}

	states, err := s.Store.StatesAfter(c.MatchID, c.lastSeenMove)
	if err != nil {
		return nil, false, fmt.Errorf("poll moves for match %s: %w", c.MatchID, err)
	}

	var events []models.LiveEvent
	for _, st := range states {
		if st.MoveNumber <= c.lastSeenMove {
			continue
		}
		snap := snapshot(st)
		events = append(events, models.LiveEvent{
			Type:      models.EventMove,
			Timestamp: now,
			MatchID:   c.MatchID,
			Move:      &snap,
		})
		c.lastSeenMove = st.MoveNumber
	}

	if match.Status == models.MatchStatusCompleted {
		events = append(events, models.LiveEvent{
			Type:      models.EventMatchComplete,
			Timestamp: now,
			MatchID:   c.MatchID,
			Result: &models.MatchResult{
				Winner:      match.Winner,
				Termination: match.Termination,
				MoveCount:   match.MoveCount,
			},
		})
		return events, true, nil
	}
	return events, false, nil
}
