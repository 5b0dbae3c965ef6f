package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/player"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/response"
)

type ProvisionRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type ProvisionResponse struct {
	PlayerID  int64  `json:"player_id"`
	Username  string `json:"username"`
	CapitalID int64  `json:"capital_id"`
	Capital   string `json:"capital"`
}

type PlayerResponse struct {
	PlayerID  int64  `json:"player_id"`
	Username  string `json:"username"`
	Energy    int64  `json:"energy"`
	CapitalID *int64 `json:"capital_id"`
	CurrentID *int64 `json:"current_id"`
}

type SpendEnergyRequest struct {
	Amount int64 `json:"amount"`
}

type RenamePlanetRequest struct {
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
}

type PlayersHandler struct {
	players *player.Service
	repo    *player.Repository
}

func NewPlayersHandler(players *player.Service, repo *player.Repository) *PlayersHandler {
	return &PlayersHandler{players: players, repo: repo}
}

func (h *PlayersHandler) Provision(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "operation", "provision")

	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid request body"))
		return
	}

	p, capital, err := h.players.Provision(r.Context(), req.Username, req.Email)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	resp := ProvisionResponse{
		PlayerID:  p.ID,
		Username:  p.Username,
		CapitalID: capital.ID,
		Capital:   capital.DisplayName(),
	}

	response.Success(w, http.StatusCreated, resp)
}

// Get returns the player with their energy resolved to the current instant.
func (h *PlayersHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "operation", "get")

	playerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid player id"))
		return
	}

	p, err := h.repo.GetPlayer(r.Context(), playerID, nil)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	energy, err := h.players.Energy(r.Context(), playerID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	resp := PlayerResponse{
		PlayerID:  p.ID,
		Username:  p.Username,
		Energy:    energy,
		CapitalID: p.CapitalID,
		CurrentID: p.CurrentID,
	}

	response.Success(w, http.StatusOK, resp)
}

func (h *PlayersHandler) SpendEnergy(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "operation", "spend_energy")

	playerID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid player id"))
		return
	}

	var req SpendEnergyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid request body"))
		return
	}

	if err := h.players.SpendEnergy(r.Context(), playerID, req.Amount); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayersHandler) RenamePlanet(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "players", "operation", "rename_planet")

	planetID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid planet id"))
		return
	}

	var req RenamePlanetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid request body"))
		return
	}

	if err := h.players.RenamePlanet(r.Context(), req.PlayerID, planetID, req.Name); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
