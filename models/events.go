package models

import "time"

// Live stream event types. Each SSE payload is one LiveEvent; consumers
// dispatch on Type. Ordering is only guaranteed per category within one
// connection (and strictly, deduplicated, for "move" events of one match).
const (
	EventConnected       = "connected"
	EventLiveMatches     = "live_matches"
	EventMatchStart      = "match_start"
	EventMove            = "move"
	EventMatchComplete   = "match_complete"
	EventIdle            = "idle"
	EventQueueUpdate     = "queue_update"
	EventBracketComplete = "bracket_complete"
	EventTimeout         = "timeout"
	EventNoData          = "no_data"
)

// Participant is the spectator-facing description of one side of a match.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Handle string  `json:"handle"`
	Rating float64 `json:"rating"`
}

// MatchSummary is the roster/queue view of a match.
type MatchSummary struct {
	ID        string      `json:"id"`
	AgentA    Participant `json:"agent_a"`
	AgentB    Participant `json:"agent_b"`
	Status    string      `json:"status"`
	MoveCount int         `json:"move_count"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
}

// MatchResult carries the terminal facts of a completed match.
type MatchResult struct {
	Winner      *string `json:"winner"` // nil = draw
	Termination string  `json:"termination,omitempty"`
	MoveCount   int     `json:"move_count"`
}

// MoveSnapshot is one per-move payload pushed to spectators.
type MoveSnapshot struct {
	MoveNumber     int      `json:"move_number"`
	Board          string   `json:"board"`
	MoveDurationMS *int64   `json:"move_duration_ms,omitempty"`
	Notation       *string  `json:"notation,omitempty"`
	Evaluation     *float64 `json:"evaluation,omitempty"`
}

// LiveEvent is the self-describing record pushed over every arena stream.
// Only the fields relevant to Type are populated.
type LiveEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Bracket string `json:"bracket,omitempty"`
	MatchID string `json:"match_id,omitempty"`

	Matches []MatchSummary `json:"matches,omitempty"` // live_matches roster
	Queue   []MatchSummary `json:"queue,omitempty"`   // idle, queue_update
	Recent  *MatchSummary  `json:"recently_completed,omitempty"`

	Match   *MatchSummary  `json:"match,omitempty"`   // match_start
	Backlog []MoveSnapshot `json:"backlog,omitempty"` // match_start full history
	Move    *MoveSnapshot  `json:"move,omitempty"`    // move

	Result *MatchResult `json:"result,omitempty"` // match_complete

	Spectators int    `json:"spectators,omitempty"` // connected (single-match)
	Message    string `json:"message,omitempty"`    // timeout, no_data
}
