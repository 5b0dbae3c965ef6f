// Package universe seeds the world map with neutral planets. Generation
// runs once on an empty database; everything afterwards is driven by
// players settling, building and fighting over what was generated here.
package universe

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/HadilKochtane/galaxyofdrones-online/internal/planet"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/config"
	"github.com/HadilKochtane/galaxyofdrones-online/internal/shared/database"
)

// gridCountBySize is the number of buildable slots per planet size class.
var gridCountBySize = map[planet.Size]int{
	planet.SizeSmall:  9,
	planet.SizeMedium: 12,
	planet.SizeLarge:  15,
}

type Service struct {
	db     *database.DB
	repo   *planet.Repository
	logger *slog.Logger
}

func NewService(db *database.DB, repo *planet.Repository, logger *slog.Logger) *Service {
	logger.Debug("Initializing universe service")

	return &Service{
		db:     db,
		repo:   repo,
		logger: logger,
	}
}

// EnsureGenerated seeds the map if no planets exist yet.
func (s *Service) EnsureGenerated(ctx context.Context) error {
	logger := s.logger.With("component", "universe_service", "operation", "ensure_generated")

	count, err := s.repo.CountPlanets(ctx)
	if err != nil {
		return fmt.Errorf("failed to count planets: %w", err)
	}
	if count > 0 {
		logger.Debug("Universe already generated", "planets", count)
		return nil
	}

	return s.Generate(ctx)
}

// Generate populates the map with neutral planets. Positions are drawn on
// an x,y grid at the configured density; small planets dominate so new
// players always find a starter capital.
func (s *Service) Generate(ctx context.Context) error {
	cfg := config.GlobalConfig.Universe
	logger := s.logger.With(
		"component", "universe_service",
		"operation", "generate",
		"map_size", cfg.MapSize,
		"density", cfg.PlanetDensity,
	)
	logger.Info("Generating universe")

	var requests []planet.BatchInsertRequest
	names := planetNames()

	for x := 0; x < cfg.MapSize; x++ {
		for y := 0; y < cfg.MapSize; y++ {
			if rand.Float64() >= cfg.PlanetDensity {
				continue
			}

			size := randomSize()
			requests = append(requests, planet.BatchInsertRequest{
				ResourceID: int64(1 + rand.Intn(cfg.ResourceCount)),
				Name:       fmt.Sprintf("%s %d:%d", names[rand.Intn(len(names))], x, y),
				X:          x,
				Y:          y,
				Size:       size,
			})
		}
	}

	err := s.db.WithinTx(ctx, func(tx *database.Tx) error {
		created, err := s.repo.CreatePlanetsBatch(ctx, requests, tx)
		if err != nil {
			return fmt.Errorf("failed to create planets: %w", err)
		}

		for _, p := range created {
			if err := s.repo.CreateGrids(ctx, p.ID, gridCountBySize[p.Size], tx); err != nil {
				return fmt.Errorf("failed to create grids for planet %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Universe generation failed", "error", err)
		return err
	}

	logger.Info("Universe generated", "planets", len(requests))
	return nil
}

// randomSize weights small planets most heavily.
func randomSize() planet.Size {
	roll := rand.Intn(100)
	switch {
	case roll < 55:
		return planet.SizeSmall
	case roll < 85:
		return planet.SizeMedium
	default:
		return planet.SizeLarge
	}
}

func planetNames() []string {
	return []string{
		"Keslan", "Obyran", "Veska", "Drenno", "Maruun", "Tessia",
		"Holvar", "Quenn", "Arvass", "Nerido", "Pellos", "Ystrel",
	}
}
