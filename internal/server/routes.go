package server

import (
	"log/slog"
	"net/http"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/battle"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/player"
	serverHandlers "github.com/HadilKochtane/galaxyofdrones-online/internal/server/handlers"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/transfer"
)

type Routes struct {
	db             *database.DB
	playerService  *player.Service
	playerRepo     *player.Repository
	planetService  *planet.Service
	planetRepo     *planet.Repository
	movementRepo   *movement.Repository
	battleRepo     *battle.Repository
	battleResolver *battle.Resolver
	transferCtrl   *transfer.Controller
	clock          clock.Clock
	logger         *slog.Logger
}

func NewRoutes(
	db *database.DB,
	playerService *player.Service,
	playerRepo *player.Repository,
	planetService *planet.Service,
	planetRepo *planet.Repository,
	movementRepo *movement.Repository,
	battleRepo *battle.Repository,
	battleResolver *battle.Resolver,
	transferCtrl *transfer.Controller,
	clk clock.Clock,
	logger *slog.Logger,
) *Routes {
	return &Routes{
		db:             db,
		playerService:  playerService,
		playerRepo:     playerRepo,
		planetService:  planetService,
		planetRepo:     planetRepo,
		movementRepo:   movementRepo,
		battleRepo:     battleRepo,
		battleResolver: battleResolver,
		transferCtrl:   transferCtrl,
		clock:          clk,
		logger:         logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db)
	statusHandler := serverHandlers.NewStatusHandler(r.playerRepo, r.planetRepo)
	playersHandler := serverHandlers.NewPlayersHandler(r.playerService, r.playerRepo)
	movementsHandler := serverHandlers.NewMovementsHandler(r.movementRepo, r.battleResolver, r.transferCtrl, r.clock)
	planetsHandler := serverHandlers.NewPlanetsHandler(r.planetService, r.planetRepo)
	battlesHandler := serverHandlers.NewBattlesHandler(r.battleRepo)

	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/api/game/status", statusHandler)
	mux.HandleFunc("POST /api/players", playersHandler.Provision)
	mux.HandleFunc("GET /api/players/{id}", playersHandler.Get)
	mux.HandleFunc("POST /api/players/{id}/energy/spend", playersHandler.SpendEnergy)
	mux.HandleFunc("GET /api/planets/{id}", planetsHandler.Get)
	mux.HandleFunc("PUT /api/planets/{id}/name", playersHandler.RenamePlanet)
	mux.HandleFunc("POST /api/movements", movementsHandler.Dispatch)
	mux.HandleFunc("POST /api/movements/{id}/resolve", movementsHandler.Resolve)
	mux.HandleFunc("GET /api/battles/{id}", battlesHandler.ServeHTTP)

	logger.Info("Routes configured successfully",
		"endpoints", []string{
			"/api/server/health",
			"/api/game/status",
			"/api/players",
			"/api/players/{id}",
			"/api/planets/{id}",
			"/api/planets/{id}/name",
			"/api/movements",
			"/api/movements/{id}/resolve",
			"/api/battles/{id}",
		},
	)

	return mux
}
