package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"agent-arena-system/models"
)

// TournamentService manages the tournament lifecycle:
// unseeded -> seeded -> running -> complete. Seeding and kickoff normally
// happen on schedule via the kickoff worker; the admin endpoints here exist
// for manual control.
type TournamentService struct {
	DB       *gorm.DB
	Brackets *BracketService
}

func NewTournamentService(db *gorm.DB, brackets *BracketService) *TournamentService {
	return &TournamentService{DB: db, Brackets: brackets}
}

func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	var body struct {
		Name      string `json:"name"`
		StartTime string `json:"start_time"` // RFC3339
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	startTime := time.Now().UTC()
	if body.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, body.StartTime)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		startTime = parsed
	}

	tournament := models.Tournament{
		ID:        uuid.NewString(),
		Name:      body.Name,
		Status:    models.TournamentUnseeded,
		StartTime: startTime,
	}
	if err := s.DB.Create(&tournament).Error; err != nil {
		log.Printf("tournament: create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create tournament"})
	}
	return c.Status(201).JSON(tournament)
}

func (s *TournamentService) GetTournaments(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	if err := s.DB.Order("start_time DESC").Find(&tournaments).Error; err != nil {
		log.Printf("tournament: list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to list tournaments"})
	}
	return c.JSON(tournaments)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	var tournament models.Tournament
	err := s.DB.Preload("Seeding").First(&tournament, "id = ?", c.Params("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Tournament not found"})
	}
	if err != nil {
		log.Printf("tournament: load %s failed: %v", c.Params("id"), err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load tournament"})
	}
	return c.JSON(tournament)
}

// Kickoff seeds an unseeded tournament and moves it straight to running.
// Seeding pins bracket membership from current ratings; re-running kickoff
// on an already seeded tournament keeps the existing pin.
func (s *TournamentService) Kickoff(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	err := s.DB.First(&tournament, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Tournament not found"})
	}
	if err != nil {
		log.Printf("tournament: load %s failed: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load tournament"})
	}

	switch tournament.Status {
	case models.TournamentRunning:
		return c.JSON(fiber.Map{"status": tournament.Status})
	case models.TournamentComplete:
		return c.Status(409).JSON(fiber.Map{"error": "Tournament already complete"})
	}

	assignment, err := s.Brackets.Seed(id)
	if err != nil {
		log.Printf("tournament: seed %s failed: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to seed tournament"})
	}

	if err := s.transition(id, models.TournamentRunning); err != nil {
		log.Printf("tournament: start %s failed: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to start tournament"})
	}

	log.Printf("tournament: %s kicked off with %d agents", id, assignment.Size())
	return c.JSON(fiber.Map{
		"status":     models.TournamentRunning,
		"assignment": assignment,
	})
}

// Complete marks a running tournament finished.
func (s *TournamentService) Complete(c *fiber.Ctx) error {
	id := c.Params("id")

	var tournament models.Tournament
	err := s.DB.First(&tournament, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "Tournament not found"})
	}
	if err != nil {
		log.Printf("tournament: load %s failed: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to load tournament"})
	}
	if tournament.Status != models.TournamentRunning {
		return c.Status(409).JSON(fiber.Map{"error": "Tournament is not running"})
	}

	now := time.Now().UTC()
	err = s.DB.Model(&models.Tournament{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   models.TournamentComplete,
			"ended_at": now,
		}).Error
	if err != nil {
		log.Printf("tournament: complete %s failed: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "Failed to complete tournament"})
	}
	return c.JSON(fiber.Map{"status": models.TournamentComplete})
}

func (s *TournamentService) transition(id, status string) error {
	return s.DB.Model(&models.Tournament{}).Where("id = ?", id).
		Update("status", status).Error
}
