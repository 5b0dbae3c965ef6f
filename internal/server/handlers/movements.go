package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/battle"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/clock"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/movement"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/response"
)

// Resolver records a movement arrival as a battle log.
type Resolver interface {
	CreateFrom(ctx context.Context, movementID int64, report battle.Report) (*battle.Log, error)
}

// Transferer changes a planet's owner with the full cascade.
type Transferer interface {
	Transfer(ctx context.Context, planetID int64, newOwnerID *int64) error
}

// MovementCreator dispatches a fleet between planets.
type MovementCreator interface {
	CreateMovement(ctx context.Context, startID, endID, userID int64, movementType movement.Type, endedAt time.Time, tx *database.Tx) (*movement.Movement, error)
}

type DispatchRequest struct {
	StartID       int64         `json:"start_id"`
	EndID         int64         `json:"end_id"`
	UserID        int64         `json:"user_id"`
	Type          movement.Type `json:"type"`
	TravelSeconds int64         `json:"travel_seconds"`
}

type ResolveRequest struct {
	Winner    *battle.Winner        `json:"winner"`
	Units     []battle.UnitLine     `json:"units"`
	Buildings []battle.BuildingLine `json:"buildings"`
	Resources []battle.ResourceLine `json:"resources"`
}

// MovementsHandler dispatches movements and resolves their arrivals. It is
// the caller side of the battle resolver's contract: the resolver records
// the outcome and deletes the movement, and on a winning occupy this
// handler hands the destination to the attacker.
type MovementsHandler struct {
	movements  MovementCreator
	resolver   Resolver
	transferer Transferer
	clock      clock.Clock
}

func NewMovementsHandler(movements MovementCreator, resolver Resolver, transferer Transferer, clk clock.Clock) *MovementsHandler {
	return &MovementsHandler{movements: movements, resolver: resolver, transferer: transferer, clock: clk}
}

func (h *MovementsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "movements", "operation", "dispatch")

	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid request body"))
		return
	}

	if req.StartID == req.EndID {
		response.Error(w, r, logger, errors.Validationf("movement must target a different planet"))
		return
	}
	if req.Type < movement.TypeScout || req.Type > movement.TypeOccupy {
		response.Error(w, r, logger, errors.Validationf("unknown movement type %d", req.Type))
		return
	}
	if req.TravelSeconds <= 0 {
		response.Error(w, r, logger, errors.Validationf("travel time must be positive"))
		return
	}

	endedAt := h.clock.Now().Add(time.Duration(req.TravelSeconds) * time.Second)
	mv, err := h.movements.CreateMovement(r.Context(), req.StartID, req.EndID, req.UserID, req.Type, endedAt, nil)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, mv)
}

func (h *MovementsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "movements", "operation", "resolve")

	movementID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid movement id"))
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid request body"))
		return
	}

	log, err := h.resolver.CreateFrom(r.Context(), movementID, battle.Report{
		Winner:    req.Winner,
		Units:     req.Units,
		Buildings: req.Buildings,
		Resources: req.Resources,
	})
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if log == nil {
		// Movement already resolved; re-delivery is a no-op.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if log.Type == movement.TypeOccupy && log.Winner == battle.WinnerAttacker {
		if err := h.transferer.Transfer(r.Context(), log.EndID, &log.AttackerID); err != nil {
			response.Error(w, r, logger, err)
			return
		}
	}

	response.Success(w, http.StatusCreated, log)
}
