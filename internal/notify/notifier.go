// Package notify publishes the two event kinds the simulation core emits:
// planet updates and battle log creation. Delivery is best-effort; a failed
// publish is logged and never surfaces to the emitting transaction.
package notify

import (
	"context"
	"log/slog"

	sharedredis "github.com/HadilKochtane/galaxyofdrones-online/internal/shared/redis"
)

// Notifier fans out core events to interested observers. Implementations
// must not block on or propagate delivery failures.
type Notifier interface {
	PlanetUpdated(ctx context.Context, planetID int64)
	BattleLogCreated(ctx context.Context, battleLogID, userID int64)
}

// New returns the redis-backed notifier when a client is available and the
// log-only fallback otherwise.
func New(client *sharedredis.Client, logger *slog.Logger) Notifier {
	if client == nil {
		logger.Info("Notifications running in log-only mode")
		return &LogNotifier{logger: logger}
	}
	return NewRedisNotifier(client, logger)
}

// LogNotifier records events in the log and delivers nothing. Used when
// redis is disabled and in tests.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PlanetUpdated(ctx context.Context, planetID int64) {
	n.logger.Info("Planet updated", "component", "notifier", "planet_id", planetID)
}

func (n *LogNotifier) BattleLogCreated(ctx context.Context, battleLogID, userID int64) {
	n.logger.Info("Battle log created",
		"component", "notifier",
		"battle_log_id", battleLogID,
		"user_id", userID,
	)
}
