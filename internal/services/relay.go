package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// Broadcaster fans a message out to connected clients.
type Broadcaster interface {
	BroadcastToAuction(auctionID string, message interface{}) error
	BroadcastAll(message interface{}) error
}

// EventRelay bridges the published event stream to live client
// connections: auction-scoped events go to that auction's room, the
// rest to everyone.
type EventRelay struct {
	broadcaster Broadcaster
	log         logger.Logger
}

func NewEventRelay(broadcaster Broadcaster, log logger.Logger) *EventRelay {
	return &EventRelay{broadcaster: broadcaster, log: log}
}

// Start consumes events until ctx is cancelled.
func (r *EventRelay) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	r.log.Info("Starting event relay")
	return subscriber.Subscribe(ctx, r.handleEvent)
}

func (r *EventRelay) handleEvent(event *domain.Event) error {
	r.log.Debug("Relaying event", "event", event.Name, "auction_id", event.AuctionID)

	switch event.Name {
	case domain.EventAuctionUpdated, domain.EventTransactionCreated:
		if event.AuctionID == "" {
			return fmt.Errorf("event %s missing auction id", event.Name)
		}
		return r.broadcaster.BroadcastToAuction(event.AuctionID, event)
	case domain.EventAuctionCreated, domain.EventAuctionClosed:
		return r.broadcaster.BroadcastAll(event)
	default:
		return fmt.Errorf("unknown event type %q", event.Name)
	}
}
