// Package notify appends notifications durably and pushes them to connected
// clients over Redis pub/sub. The append is the source of truth; the realtime
// push is best effort and its failure never fails the caller.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"careeragent-workers/internal/common/logger"
	"careeragent-workers/internal/common/metrics"
	"careeragent-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// Appender persists notifications. Satisfied by *store.Store.
type Appender interface {
	AppendNotification(ctx context.Context, recipientID, recipientType string, n models.Notification) error
}

// Publisher pushes to realtime channels. Satisfied by *redis.Client.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type Notifier struct {
	store         Appender
	redis         Publisher
	channelPrefix string
	logger        logger.Logger
}

func New(store Appender, rdb Publisher, channelPrefix string, log logger.Logger) *Notifier {
	if channelPrefix == "" {
		channelPrefix = "user"
	}
	return &Notifier{
		store:         store,
		redis:         rdb,
		channelPrefix: channelPrefix,
		logger:        log,
	}
}

// Channel returns the realtime channel for a recipient. Recipient ids are
// always stringified the same way here, so a client subscribed at connect
// time and a worker publishing later land on the same channel.
func (n *Notifier) Channel(recipientID string) string {
	return fmt.Sprintf("%s:%s", n.channelPrefix, recipientID)
}

// Notify appends the notification and then publishes it. An append failure is
// returned to the caller; a publish failure is only logged.
func (n *Notifier) Notify(ctx context.Context, recipientID, recipientType string, note models.Notification) error {
	if note.Timestamp.IsZero() {
		note.Timestamp = time.Now().UTC()
	}

	if err := n.store.AppendNotification(ctx, recipientID, recipientType, note); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}

	payload, err := json.Marshal(note)
	if err != nil {
		n.logger.Error("Failed to marshal notification for realtime push", map[string]interface{}{
			"recipientId": recipientID,
			"type":        note.Type,
			"error":       err.Error(),
		})
		return nil
	}

	if err := n.redis.Publish(ctx, n.Channel(recipientID), payload).Err(); err != nil {
		n.logger.Warn("Realtime push failed, notification persisted", map[string]interface{}{
			"recipientId": recipientID,
			"channel":     n.Channel(recipientID),
			"type":        note.Type,
			"error":       err.Error(),
		})
		return nil
	}

	metrics.NotificationsPublished.WithLabelValues(recipientType).Inc()
	return nil
}
