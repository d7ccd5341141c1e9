package redis

import (
	"context"
	"encoding/json"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// EventSubscriber consumes the auction event channel and hands each
// decoded envelope to the handler. Malformed payloads and handler
// errors are logged, never fatal to the subscription.
type EventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{client: client, log: log}
}

func (s *EventSubscriber) Subscribe(ctx context.Context, handler domain.EventHandler) error {
	pubsub := s.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	s.log.Info("Subscribed to auction events", "channel", eventsChannel)

	for {
		select {
		case msg := <-ch:
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("Failed to decode event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				s.log.Error("Failed to handle event", "event", event.Name, "error", err)
			}

		case <-ctx.Done():
			s.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}
