package models

// Agent is the read-only mirror of an entry in the rating service.
// The arena core never writes ratings or game counts; the match runner
// and rating service own those.
type Agent struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	DisplayName string  `gorm:"not null" json:"display_name"`
	Rating      float64 `gorm:"not null;default:1200;index" json:"rating"`
	GamesPlayed int64   `gorm:"not null;default:0" json:"games_played"`
	IsActive    bool    `gorm:"default:true;index" json:"is_active"`

	// ExecutionMode distinguishes ranked ladder agents from sandbox/test
	// agents. Only "ranked" agents are eligible for tournament seeding.
	ExecutionMode string `gorm:"type:varchar(16);default:'ranked';index" json:"execution_mode"`

	Timestamps
}

const ExecutionModeRanked = "ranked"
