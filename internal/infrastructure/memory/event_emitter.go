package memory

import (
	"context"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
)

// LogEmitter satisfies the event emitter port for deployments without a
// real-time transport: events are logged and dropped.
type LogEmitter struct {
	log logger.Logger
}

func NewLogEmitter(log logger.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) AuctionCreated(ctx context.Context, auction *domain.Auction) error {
	e.log.Info("event", "type", domain.EventAuctionCreated, "auction_id", auction.ID)
	return nil
}

func (e *LogEmitter) AuctionUpdated(ctx context.Context, update domain.AuctionUpdate) error {
	e.log.Info("event", "type", domain.EventAuctionUpdated,
		"auction_id", update.AuctionID, "current_price", update.CurrentPrice)
	return nil
}

func (e *LogEmitter) AuctionClosed(ctx context.Context, auction *domain.Auction) error {
	e.log.Info("event", "type", domain.EventAuctionClosed, "auction_id", auction.ID)
	return nil
}

func (e *LogEmitter) TransactionCreated(ctx context.Context, tx domain.Transaction) error {
	e.log.Info("event", "type", domain.EventTransactionCreated,
		"auction_id", tx.AuctionID, "user_id", tx.UserID, "amount", tx.Amount)
	return nil
}
