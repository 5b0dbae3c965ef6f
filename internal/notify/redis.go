package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	sharedredis "github.com/HadilKochtane/galaxyofdrones-online/internal/shared/redis"
)

const (
	planetUpdatedChannel    = "events.planet_updated"
	battleLogCreatedChannel = "events.battle_log_created"

	publishTimeout = 2 * time.Second
)

// RedisNotifier publishes events to redis pub/sub channels for the
// delivery collaborator to pick up.
type RedisNotifier struct {
	client *sharedredis.Client
	logger *slog.Logger
}

func NewRedisNotifier(client *sharedredis.Client, logger *slog.Logger) *RedisNotifier {
	logger.Debug("Initializing redis notifier")

	return &RedisNotifier{
		client: client,
		logger: logger,
	}
}

type planetUpdatedEvent struct {
	PlanetID int64 `json:"planet_id"`
}

type battleLogCreatedEvent struct {
	BattleLogID int64 `json:"battle_log_id"`
	UserID      int64 `json:"user_id"`
}

func (n *RedisNotifier) PlanetUpdated(ctx context.Context, planetID int64) {
	n.publish(ctx, planetUpdatedChannel, planetUpdatedEvent{PlanetID: planetID})
}

func (n *RedisNotifier) BattleLogCreated(ctx context.Context, battleLogID, userID int64) {
	n.publish(ctx, battleLogCreatedChannel, battleLogCreatedEvent{
		BattleLogID: battleLogID,
		UserID:      userID,
	})
}

func (n *RedisNotifier) publish(ctx context.Context, channel string, event interface{}) {
	logger := n.logger.With("component", "notifier", "channel", channel)

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err)
		return
	}

	// Detached from the caller's context so a committed transaction's
	// notification is not lost to request cancellation.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := n.client.Publish(publishCtx, channel, payload).Err(); err != nil {
		logger.Error("Failed to publish event", "error", err)
		return
	}

	logger.Debug("Event published")
}
