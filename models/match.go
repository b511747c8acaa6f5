package models

import "time"

// Match statuses, written only by the external match runner.
const (
	MatchStatusPending    = "pending"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
)

// Match kinds. Only tournament matches count toward Swiss standings.
const (
	MatchKindTournament = "tournament"
	MatchKindExhibition = "exhibition"
)

// Winner values. A completed match with a nil winner is a draw.
const (
	WinnerAgentA = "agent_a"
	WinnerAgentB = "agent_b"
)

// Match records a single pairing between two agents. The arena core only
// reads these rows; the match runner creates them at pairing time and
// updates them as games conclude.
type Match struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	AgentAID string `gorm:"not null;index" json:"agent_a_id"`
	AgentBID string `gorm:"not null;index" json:"agent_b_id"`

	Kind   string `gorm:"type:varchar(16);default:'tournament';index" json:"kind"`
	Status string `gorm:"type:varchar(16);default:'pending';index" json:"status"`

	Winner      *string `gorm:"type:varchar(8)" json:"winner,omitempty"` // nil on a completed match = draw
	Termination string  `gorm:"type:varchar(32)" json:"termination,omitempty"`
	MoveCount   int     `gorm:"default:0" json:"move_count"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"index"`
}

// GameState is one per-move snapshot of a match. Rows are append-only with
// strictly increasing move numbers per match; move 1 is agent A's turn and
// odd moves stay agent A's under the platform convention.
type GameState struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID string `gorm:"not null;index:idx_game_states_match_move,priority:1" json:"match_id"`

	MoveNumber int    `gorm:"not null;index:idx_game_states_match_move,priority:2" json:"move_number"`
	Board      string `gorm:"type:text;not null" json:"board"` // opaque snapshot blob

	MoveDurationMS *int64   `json:"move_duration_ms,omitempty"` // nil = timeout
	Notation       *string  `json:"notation,omitempty"`
	Evaluation     *float64 `json:"evaluation,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
