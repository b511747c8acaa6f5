package handlers

import (
	"agent-arena-system/middleware"
	"agent-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, standingsService *services.StandingsService) {
	// Public spectator routes
	app.Get("/tournaments", tournamentService.GetTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Get("/tournaments/:id/brackets", standingsService.GetBrackets)
	app.Get("/tournaments/:id/brackets/:bracket/standings", standingsService.GetStandings)
	app.Get("/tournaments/:id/brackets/:bracket/status", standingsService.GetBracketStatus)
	app.Get("/tournaments/:id/brackets/:bracket/pairings", standingsService.GetNextPairings)

	// Admin routes, gateway token required
	admin := app.Group("/admin", middleware.GatewayAuthMiddleware())
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Post("/tournaments/:id/kickoff", tournamentService.Kickoff)
	admin.Post("/tournaments/:id/complete", tournamentService.Complete)
}
