package handlers

import (
	"context"
	"net/http"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/response"
)

type StatusResponse struct {
	Game    string `json:"game"`
	Players int    `json:"players"`
	Planets int    `json:"planets"`
}

// StatusCounter is the slice of the repositories the status endpoint reads.
type StatusCounter interface {
	GetPlayerCount(ctx context.Context) (int, error)
}

type PlanetCounter interface {
	CountPlanets(ctx context.Context) (int, error)
}

type StatusHandler struct {
	players StatusCounter
	planets PlanetCounter
}

func NewStatusHandler(players StatusCounter, planets PlanetCounter) *StatusHandler {
	return &StatusHandler{players: players, planets: planets}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerCount, err := h.players.GetPlayerCount(r.Context())
	if err != nil {
		playerCount = 0
	}

	planetCount, err := h.planets.CountPlanets(r.Context())
	if err != nil {
		planetCount = 0
	}

	resp := StatusResponse{
		Game:    "Galaxy of Drones",
		Players: playerCount,
		Planets: planetCount,
	}

	response.Success(w, http.StatusOK, resp)
}
