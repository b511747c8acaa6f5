package services

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agent-arena-system/models"
)

const minBracketField = 8

// BracketService partitions rated agents into skill brackets and pins the
// result. Membership is computed exactly once per tournament, at kickoff;
// every later read returns the pinned assignment so rating drift during play
// never moves an agent between brackets.
type BracketService struct {
	DB    *gorm.DB
	Store HistoryStore

	mu    sync.RWMutex
	cache map[string]*models.BracketAssignment
}

func NewBracketService(db *gorm.DB, store HistoryStore) *BracketService {
	return &BracketService{
		DB:    db,
		Store: store,
		cache: make(map[string]*models.BracketAssignment),
	}
}

// PartitionAgents splits agents into challenger/contender/elite by rating
// percentile. Duplicate ids keep only their highest-rated entry. Fields
// smaller than 8 all land in contender so no bracket is left unplayable.
func PartitionAgents(tournamentID string, agents []models.Agent) models.BracketAssignment {
	best := make(map[string]models.Agent, len(agents))
	for _, a := range agents {
		if cur, ok := best[a.ID]; !ok || a.Rating > cur.Rating {
			best[a.ID] = a
		}
	}

	deduped := make([]models.Agent, 0, len(best))
	for _, a := range best {
		deduped = append(deduped, a)
	}
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Rating != deduped[j].Rating {
			return deduped[i].Rating < deduped[j].Rating
		}
		return deduped[i].ID < deduped[j].ID
	})

	ids := make([]string, len(deduped))
	for i, a := range deduped {
		ids[i] = a.ID
	}

	assignment := models.BracketAssignment{TournamentID: tournamentID}
	n := len(ids)
	if n < minBracketField {
		assignment.Challenger = []string{}
		assignment.Contender = ids
		assignment.Elite = []string{}
		return assignment
	}

	challengerEnd := int(math.Round(float64(n) * 0.25))
	if challengerEnd < 1 {
		challengerEnd = 1
	}
	eliteStart := int(math.Round(float64(n) * 0.75))
	if eliteStart < challengerEnd {
		eliteStart = challengerEnd
	}

	assignment.Challenger = ids[:challengerEnd]
	assignment.Contender = ids[challengerEnd:eliteStart]
	assignment.Elite = ids[eliteStart:]
	return assignment
}

// Seed computes the bracket assignment from current ratings and pins it.
// Seeding is write-once: a tournament that already has a seeding row keeps
// it and Seed returns the existing assignment.
func (s *BracketService) Seed(tournamentID string) (*models.BracketAssignment, error) {
	if existing, err := s.loadSeeding(tournamentID); err != nil {
		return nil, err
	} else if existing != nil {
		log.Printf("bracket: tournament %s already seeded, keeping pinned assignment", tournamentID)
		return existing, nil
	}

	agents, err := s.Store.RatedAgents(models.ExecutionModeRanked)
	if err != nil {
		return nil, err
	}
	assignment := PartitionAgents(tournamentID, agents)

	challengerJSON, _ := json.Marshal(assignment.Challenger)
	contenderJSON, _ := json.Marshal(assignment.Contender)
	eliteJSON, _ := json.Marshal(assignment.Elite)

	now := time.Now().UTC()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		seeding := models.BracketSeeding{
			ID:             uuid.NewString(),
			TournamentID:   tournamentID,
			ChallengerJSON: string(challengerJSON),
			ContenderJSON:  string(contenderJSON),
			EliteJSON:      string(eliteJSON),
			SeededAt:       now,
		}
		if err := tx.Create(&seeding).Error; err != nil {
			return err
		}
		return tx.Model(&models.Tournament{}).
			Where("id = ?", tournamentID).
			Updates(map[string]interface{}{
				"status":    models.TournamentSeeded,
				"seeded_at": now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[tournamentID] = &assignment
	s.mu.Unlock()

	log.Printf("bracket: tournament %s seeded with %d agents (challenger=%d contender=%d elite=%d)",
		tournamentID, assignment.Size(),
		len(assignment.Challenger), len(assignment.Contender), len(assignment.Elite))
	return &assignment, nil
}

// Assignment returns the pinned assignment for the tournament. The dynamic
// fallback from live ratings runs only when no seeding row exists at all,
// which keeps pre-kickoff previews working without ever shadowing a pin.
func (s *BracketService) Assignment(tournamentID string) (*models.BracketAssignment, error) {
	s.mu.RLock()
	cached := s.cache[tournamentID]
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	pinned, err := s.loadSeeding(tournamentID)
	if err != nil {
		return nil, err
	}
	if pinned != nil {
		s.mu.Lock()
		s.cache[tournamentID] = pinned
		s.mu.Unlock()
		return pinned, nil
	}

	agents, err := s.Store.RatedAgents(models.ExecutionModeRanked)
	if err != nil {
		return nil, err
	}
	assignment := PartitionAgents(tournamentID, agents)
	return &assignment, nil
}

func (s *BracketService) loadSeeding(tournamentID string) (*models.BracketAssignment, error) {
	var seeding models.BracketSeeding
	err := s.DB.First(&seeding, "tournament_id = ?", tournamentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assignment := models.BracketAssignment{TournamentID: tournamentID}
	if err := json.Unmarshal([]byte(seeding.ChallengerJSON), &assignment.Challenger); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seeding.ContenderJSON), &assignment.Contender); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(seeding.EliteJSON), &assignment.Elite); err != nil {
		return nil, err
	}
	return &assignment, nil
}
