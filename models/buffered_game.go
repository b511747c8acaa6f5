package models

import "time"

// BufferedGame is a finished game held in process memory for fixed-cadence
// replay. The replay registry owns these records; they are never persisted.
type BufferedGame struct {
	ID          string
	AgentA      Participant
	AgentB      Participant
	Winner      *string
	Termination string
	Moves       []MoveSnapshot
	Completed   bool // set after the first full playout, never cleared
	BufferedAt  time.Time
}
