package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/battle"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/response"
)

// LogReader loads a battle log with its line items.
type LogReader interface {
	GetLog(ctx context.Context, battleLogID int64) (*battle.Log, error)
}

type BattlesHandler struct {
	logs LogReader
}

func NewBattlesHandler(logs LogReader) *BattlesHandler {
	return &BattlesHandler{logs: logs}
}

func (h *BattlesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "battles")

	battleLogID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid battle log id"))
		return
	}

	log, err := h.logs.GetLog(r.Context(), battleLogID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, log)
}
