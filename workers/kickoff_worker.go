package workers

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"agent-arena-system/models"
	"agent-arena-system/services"
)

// KickoffWorker drives the tournament lifecycle on a schedule. Every minute
// it seeds tournaments whose start time has arrived, starts seeded ones, and
// closes out running tournaments whose brackets have all finished.
type KickoffWorker struct {
	DB       *gorm.DB
	Store    services.HistoryStore
	Brackets *services.BracketService
}

func NewKickoffWorker(db *gorm.DB, store services.HistoryStore, brackets *services.BracketService) *KickoffWorker {
	return &KickoffWorker{DB: db, Store: store, Brackets: brackets}
}

func (w *KickoffWorker) Start() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(w.tick),
	)
	log.Println("kickoff worker started")
}

func (w *KickoffWorker) tick() {
	w.seedDueTournaments()
	w.startSeededTournaments()
	w.completeFinishedTournaments()
}

func (w *KickoffWorker) seedDueTournaments() {
	var due []models.Tournament
	err := w.DB.Where("status = ? AND start_time <= ?", models.TournamentUnseeded, time.Now().UTC()).
		Find(&due).Error
	if err != nil {
		log.Printf("[Kickoff] DB error loading due tournaments: %v", err)
		return
	}

	for _, t := range due {
		if _, err := w.Brackets.Seed(t.ID); err != nil {
			log.Printf("[Kickoff] Failed to seed tournament %s: %v", t.ID, err)
		} else {
			log.Printf("[Kickoff] Seeded tournament %s (%s)", t.ID, t.Name)
		}
	}
}

func (w *KickoffWorker) startSeededTournaments() {
	err := w.DB.Model(&models.Tournament{}).
		Where("status = ?", models.TournamentSeeded).
		Update("status", models.TournamentRunning).Error
	if err != nil {
		log.Printf("[Kickoff] Failed to start seeded tournaments: %v", err)
	}
}

func (w *KickoffWorker) completeFinishedTournaments() {
	var running []models.Tournament
	err := w.DB.Where("status = ?", models.TournamentRunning).Find(&running).Error
	if err != nil {
		log.Printf("[Kickoff] DB error loading running tournaments: %v", err)
		return
	}

	for _, t := range running {
		done, err := w.allBracketsComplete(t.ID)
		if err != nil {
			log.Printf("[Kickoff] Failed to check tournament %s: %v", t.ID, err)
			continue
		}
		if !done {
			continue
		}

		now := time.Now().UTC()
		err = w.DB.Model(&models.Tournament{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{
				"status":   models.TournamentComplete,
				"ended_at": now,
			}).Error
		if err != nil {
			log.Printf("[Kickoff] Failed to complete tournament %s: %v", t.ID, err)
		} else {
			log.Printf("[Kickoff] Tournament %s complete", t.ID)
		}
	}
}

func (w *KickoffWorker) allBracketsComplete(tournamentID string) (bool, error) {
	assignment, err := w.Brackets.Assignment(tournamentID)
	if err != nil {
		return false, err
	}

	for _, bracket := range models.BracketIDs {
		members := assignment.Members(bracket)

		completed, err := w.Store.CompletedMatches(members)
		if err != nil {
			return false, err
		}
		pending, err := w.Store.PendingMatches(members)
		if err != nil {
			return false, err
		}
		inProgress, err := w.Store.InProgressMatches(members)
		if err != nil {
			return false, err
		}

		standings := services.ComputeStandings(members, completed)
		status := services.ComputeBracketStatus(standings, pending, inProgress)
		if !status.Complete {
			return false, nil
		}
	}
	return true, nil
}
