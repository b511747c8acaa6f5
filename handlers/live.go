package handlers

import (
	"agent-arena-system/middleware"
	"agent-arena-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLiveRoutes(app *fiber.App, liveService *services.LiveService, replayService *services.ReplayService) {
	// Public spectator streams
	app.Get("/tournaments/:id/brackets/:bracket/live", liveService.StreamBracket)
	app.Get("/matches/:match_id/live", liveService.StreamMatch)

	// Replay
	app.Get("/replays", replayService.ListGames)
	app.Get("/replays/:game_id/stream", replayService.StreamReplay)

	// Match runner ingest, gateway token required
	ingest := app.Group("/internal", middleware.GatewayAuthMiddleware())
	ingest.Post("/replays", replayService.IngestGame)
}
