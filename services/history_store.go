package services

import (
	"time"

	"gorm.io/gorm"

	"agent-arena-system/models"
)

// HistoryStore is the read surface the live stream and standings code poll
// every tick. Keeping it narrow lets tests script exact sequences of rows.
type HistoryStore interface {
	RatedAgents(executionMode string) ([]models.Agent, error)
	AgentsByIDs(ids []string) ([]models.Agent, error)

	InProgressMatches(memberIDs []string) ([]models.Match, error)
	PendingMatches(memberIDs []string) ([]models.Match, error)
	CompletedMatches(memberIDs []string) ([]models.Match, error)
	RecentlyCompleted(memberIDs []string, since time.Time) ([]models.Match, error)
	MatchByID(id string) (*models.Match, error)

	StatesAfter(matchID string, afterMove int) ([]models.GameState, error)
	StatesForMatch(matchID string) ([]models.GameState, error)
}

// GormHistoryStore is the production HistoryStore backed by Postgres.
type GormHistoryStore struct {
	DB *gorm.DB
}

func NewGormHistoryStore(db *gorm.DB) *GormHistoryStore {
	return &GormHistoryStore{DB: db}
}

func (s *GormHistoryStore) RatedAgents(executionMode string) ([]models.Agent, error) {
	var agents []models.Agent
	err := s.DB.Where("is_active = ? AND execution_mode = ? AND games_played > 0", true, executionMode).
		Order("rating ASC").
		Find(&agents).Error
	return agents, err
}

func (s *GormHistoryStore) AgentsByIDs(ids []string) ([]models.Agent, error) {
	var agents []models.Agent
	if len(ids) == 0 {
		return agents, nil
	}
	err := s.DB.Where("id IN ?", ids).Find(&agents).Error
	return agents, err
}

// memberMatches scopes a match query to games where both sides belong to the
// bracket. Tournament matches are always paired inside one bracket, so a
// single-side check would be equivalent, but the symmetric form keeps
// exhibition games out even if they share an agent.
func (s *GormHistoryStore) memberMatches(memberIDs []string) *gorm.DB {
	return s.DB.Where("kind = ?", models.MatchKindTournament).
		Where("agent_a_id IN ? AND agent_b_id IN ?", memberIDs, memberIDs)
}

func (s *GormHistoryStore) InProgressMatches(memberIDs []string) ([]models.Match, error) {
	var matches []models.Match
	if len(memberIDs) == 0 {
		return matches, nil
	}
	err := s.memberMatches(memberIDs).
		Where("status = ?", models.MatchStatusInProgress).
		Order("started_at ASC").
		Find(&matches).Error
	return matches, err
}

func (s *GormHistoryStore) PendingMatches(memberIDs []string) ([]models.Match, error) {
	var matches []models.Match
	if len(memberIDs) == 0 {
		return matches, nil
	}
	err := s.memberMatches(memberIDs).
		Where("status = ?", models.MatchStatusPending).
		Order("created_at ASC").
		Find(&matches).Error
	return matches, err
}

func (s *GormHistoryStore) CompletedMatches(memberIDs []string) ([]models.Match, error) {
	var matches []models.Match
	if len(memberIDs) == 0 {
		return matches, nil
	}
	err := s.memberMatches(memberIDs).
		Where("status = ?", models.MatchStatusCompleted).
		Order("completed_at ASC").
		Find(&matches).Error
	return matches, err
}

func (s *GormHistoryStore) RecentlyCompleted(memberIDs []string, since time.Time) ([]models.Match, error) {
	var matches []models.Match
	if len(memberIDs) == 0 {
		return matches, nil
	}
	err := s.memberMatches(memberIDs).
		Where("status = ? AND completed_at >= ?", models.MatchStatusCompleted, since).
		Order("completed_at DESC").
		Find(&matches).Error
	return matches, err
}

func (s *GormHistoryStore) MatchByID(id string) (*models.Match, error) {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *GormHistoryStore) StatesAfter(matchID string, afterMove int) ([]models.GameState, error) {
	var states []models.GameState
	err := s.DB.Where("match_id = ? AND move_number > ?", matchID, afterMove).
		Order("move_number ASC").
		Find(&states).Error
	return states, err
}

func (s *GormHistoryStore) StatesForMatch(matchID string) ([]models.GameState, error) {
	return s.StatesAfter(matchID, -1)
}
