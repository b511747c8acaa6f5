package models

import (
	"time"
)

// Tournament phases. Membership is computed exactly once, at the
// seeded -> running transition, and stays pinned for the tournament's
// lifetime even if an agent later goes inactive.
const (
	TournamentUnseeded = "unseeded"
	TournamentSeeded   = "seeded"
	TournamentRunning  = "running"
	TournamentComplete = "complete"
)

// Tournament is one Swiss competition cycle over the ranked agent
// population.
type Tournament struct {
	ID     string `json:"id" gorm:"primaryKey;type:uuid"`
	Name   string `json:"name" gorm:"not null"`
	Status string `json:"status" gorm:"type:varchar(16);default:'unseeded';index"`

	StartTime time.Time  `json:"start_time" gorm:"not null"`
	SeededAt  *time.Time `json:"seeded_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationship
	Seeding *BracketSeeding `json:"seeding,omitempty" gorm:"foreignKey:TournamentID"`
}

// BracketSeeding is the persisted, write-once bracket assignment for a
// tournament. The three member lists are JSON arrays of agent ids ordered
// ascending by rating at seeding time.
type BracketSeeding struct {
	ID           string `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID string `json:"tournament_id" gorm:"not null;uniqueIndex"`

	ChallengerJSON string `json:"-" gorm:"type:text;column:challenger_json"`
	ContenderJSON  string `json:"-" gorm:"type:text;column:contender_json"`
	EliteJSON      string `json:"-" gorm:"type:text;column:elite_json"`

	SeededAt  time.Time `json:"seeded_at"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
