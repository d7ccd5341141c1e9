package services

import (
	"context"
	"fmt"

	"auction-marketplace/internal/domain"
)

// finalize runs settlement for one auction. Callers must hold the
// auction's lock. The step is idempotent: an already-settled auction is
// a no-op, which also resolves the race between a stale expiry timer
// and an in-flight buy-now.
func (e *Engine) finalize(ctx context.Context, auctionID, winnerID string) error {
	auction, err := e.store.FindByID(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction == nil {
		return fmt.Errorf("%w: auction %s", domain.ErrNotFound, auctionID)
	}

	switch auction.Status {
	case domain.AuctionOpen, domain.AuctionSold:
		// SOLD means a buy-now was persisted but not yet settled.
	default:
		e.log.Debug("Finalize skipped, auction already settled",
			"auction_id", auction.ID, "status", auction.Status)
		return nil
	}

	soldViaBuyNow := auction.Status == domain.AuctionSold

	// Derive the winner when the timer path gives us none. A buy-now
	// sale carries its winner in the aggregate; otherwise the highest
	// bid wins, ties broken by earliest timestamp.
	var winningBidID string
	salePrice := 0.0
	if winnerID == "" {
		if soldViaBuyNow {
			winnerID = auction.HighestBidderID
		} else if top, ok := auction.WinningBid(); ok {
			winnerID = top.UserID
			winningBidID = top.ID
			salePrice = top.Amount
		}
	} else if !soldViaBuyNow {
		if top, ok := auction.WinningBid(); ok && top.UserID == winnerID {
			winningBidID = top.ID
			salePrice = top.Amount
		}
	}
	if soldViaBuyNow {
		salePrice = auction.BuyNowPrice
	}

	item, err := e.items.FindByID(ctx, auction.Item.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, auction.Item.ID)
	}
	seller, err := e.ledger.FindByID(ctx, auction.SellerID)
	if err != nil {
		return err
	}
	if seller == nil {
		return fmt.Errorf("%w: seller %s", domain.ErrNotFound, auction.SellerID)
	}

	if winnerID != "" {
		// A finalize retried after a partial failure may find the item
		// already transferred; skipping keeps the step re-runnable.
		if item.OwnerID != winnerID {
			if err := e.items.TransferOwnership(ctx, seller.ID, winnerID, item.ID); err != nil {
				return err
			}
		}
		if _, err := e.items.SetAvailability(ctx, item.ID, true); err != nil {
			return err
		}
		if _, err := e.ledger.AdjustCredits(ctx, seller.ID, salePrice); err != nil {
			return err
		}
		e.log.Info("Sale settled",
			"auction_id", auction.ID, "winner_id", winnerID,
			"seller_id", seller.ID, "price", salePrice)

		e.refundEscrow(ctx, auction, winningBidID)
	} else {
		// No bids and no buy-now: release the item, move no credits.
		if _, err := e.items.SetAvailability(ctx, item.ID, true); err != nil {
			return err
		}
		e.log.Info("Auction closed without winner", "auction_id", auction.ID)
	}

	auction.Close()
	if err := e.store.Save(ctx, auction); err != nil {
		return err
	}

	if e.scheduler != nil {
		e.scheduler.CancelExpiry(auction.ID)
	}

	if err := e.emitter.AuctionClosed(ctx, auction); err != nil {
		e.log.Error("Failed to emit auction closed", "auction_id", auction.ID, "error", err)
	}

	if winnerID != "" {
		message := fmt.Sprintf("You won the auction %q (id %s).", auction.Title, auction.ID)
		if err := e.notifier.NotifyUser(ctx, winnerID, message); err != nil {
			// Degraded outcome only; settlement is already done.
			e.log.Warn("Winner notification failed",
				"auction_id", auction.ID, "winner_id", winnerID, "error", err)
		}
	}

	return nil
}

// refundEscrow returns held credits to every bid except the one that
// paid for the sale (none in the buy-now path, where the payment was a
// separate debit and even the winner's own earlier bids come back).
// Refunds are independent: a failure for one bidder is logged and must
// not block the others.
func (e *Engine) refundEscrow(ctx context.Context, auction *domain.Auction, winningBidID string) {
	for _, bid := range auction.Bids {
		if bid.ID == winningBidID {
			continue
		}
		if _, err := e.ledger.AdjustCredits(ctx, bid.UserID, bid.Amount); err != nil {
			e.log.Error("Escrow refund failed",
				"auction_id", auction.ID, "bid_id", bid.ID,
				"user_id", bid.UserID, "amount", bid.Amount, "error", err)
			continue
		}
		e.log.Info("Escrow refunded",
			"auction_id", auction.ID, "user_id", bid.UserID, "amount", bid.Amount)
	}
}
