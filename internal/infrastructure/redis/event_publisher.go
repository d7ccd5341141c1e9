package redis

import (
	"context"
	"encoding/json"

	"auction-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
)

const eventsChannel = "auction_events"

// EventPublisher carries engine events over Redis pub/sub. Delivery is
// fire-and-forget, matching the emitter port contract.
type EventPublisher struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

func (p *EventPublisher) AuctionCreated(ctx context.Context, auction *domain.Auction) error {
	return p.publish(ctx, domain.EventAuctionCreated, auction.ID, auction)
}

func (p *EventPublisher) AuctionUpdated(ctx context.Context, update domain.AuctionUpdate) error {
	return p.publish(ctx, domain.EventAuctionUpdated, update.AuctionID, update)
}

func (p *EventPublisher) AuctionClosed(ctx context.Context, auction *domain.Auction) error {
	return p.publish(ctx, domain.EventAuctionClosed, auction.ID, map[string]interface{}{
		"closed_auction": auction,
	})
}

func (p *EventPublisher) TransactionCreated(ctx context.Context, tx domain.Transaction) error {
	return p.publish(ctx, domain.EventTransactionCreated, tx.AuctionID, tx)
}

func (p *EventPublisher) publish(ctx context.Context, name, auctionID string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	envelope, err := json.Marshal(domain.Event{
		Name:      name,
		AuctionID: auctionID,
		Payload:   raw,
	})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, eventsChannel, envelope).Err()
}
