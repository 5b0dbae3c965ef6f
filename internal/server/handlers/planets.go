package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/errors"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/response"
)

type PlanetResponse struct {
	*planet.Planet
	DisplayName string `json:"display_name"`
	Stock       *int64 `json:"stock"`
}

// PlanetsHandler serves planet reads. The stock quantity is resolved to the
// current instant without writing anything back.
type PlanetsHandler struct {
	service *planet.Service
	repo    *planet.Repository
}

func NewPlanetsHandler(service *planet.Service, repo *planet.Repository) *PlanetsHandler {
	return &PlanetsHandler{service: service, repo: repo}
}

func (h *PlanetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "planets", "operation", "get")

	planetID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.Error(w, r, logger, errors.Validationf("invalid planet id"))
		return
	}

	p, err := h.repo.GetPlanet(r.Context(), planetID, nil)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	resp := PlanetResponse{Planet: p, DisplayName: p.DisplayName()}

	stock, err := h.repo.GetStock(r.Context(), p.ID, p.ResourceID, nil)
	if err != nil && !errors.IsNotFound(err) {
		response.Error(w, r, logger, err)
		return
	}
	if err == nil {
		quantity := h.service.StockQuantity(p, stock)
		resp.Stock = &quantity
	}

	response.Success(w, http.StatusOK, resp)
}
