package models

// SwissStanding is one agent's row in a bracket's standings table. It is
// recomputed from completed matches on every call and never persisted.
type SwissStanding struct {
	AgentID       string   `json:"agent_id"`
	Points        float64  `json:"points"`
	MatchesPlayed int      `json:"matches_played"`
	Tiebreak      float64  `json:"tiebreak"` // Buchholz: sum of distinct opponents' points
	Opponents     []string `json:"opponents,omitempty"`
}

// BracketStatus is the round/completion view inferred from a bracket's
// match history.
type BracketStatus struct {
	TotalRounds  int  `json:"total_rounds"`
	CurrentRound int  `json:"current_round"`
	MinPlayed    int  `json:"min_played"`
	MaxPlayed    int  `json:"max_played"`
	Transition   bool `json:"transition"` // everyone level: moving into CurrentRound
	Complete     bool `json:"complete"`
}

// Pairing is a proposed next-round match-up. The core only proposes; the
// match runner decides whether to create the match rows.
type Pairing struct {
	AgentAID string `json:"agent_a_id"`
	AgentBID string `json:"agent_b_id"`
	Rematch  bool   `json:"rematch"` // no fresh opponent was available
}
