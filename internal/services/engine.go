package services

import (
	"context"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"
)

// Listing fees, charged to the seller at creation time.
const (
	feeFor24h = 1.0
	feeFor48h = 3.0
)

// CreateAuctionInput is the validated command payload for CreateAuction.
type CreateAuctionInput struct {
	ItemID        string
	StartingPrice float64
	BuyNowPrice   float64 // 0 means no buy-now
	DurationHours int     // 24 or 48
}

// Engine owns the auction lifecycle: it validates and applies state
// transitions, orchestrates credit escrow and settlement against the
// ledger and item registry, and arms expiry timers. All mutations of
// one auction are serialized on a per-auction lock; the lock is held
// across the whole read-validate-mutate-persist sequence so a second
// command never observes stale state.
type Engine struct {
	store     domain.AuctionStore
	ledger    domain.UserLedger
	items     domain.ItemRegistry
	emitter   domain.EventEmitter
	notifier  domain.UserNotifier
	scheduler domain.ExpiryScheduler
	log       logger.Logger
	locks     *keyedMutex
	now       func() time.Time
}

func NewEngine(
	store domain.AuctionStore,
	ledger domain.UserLedger,
	items domain.ItemRegistry,
	emitter domain.EventEmitter,
	notifier domain.UserNotifier,
	scheduler domain.ExpiryScheduler, // may be nil, set later via SetScheduler
	log logger.Logger,
) *Engine {
	return &Engine{
		store:     store,
		ledger:    ledger,
		items:     items,
		emitter:   emitter,
		notifier:  notifier,
		scheduler: scheduler,
		log:       log,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// SetScheduler resolves the engine/scheduler construction cycle.
func (e *Engine) SetScheduler(scheduler domain.ExpiryScheduler) {
	e.scheduler = scheduler
}

// CreateAuction lists the seller's item: validates the command, charges
// the listing fee, flips the item unavailable, persists the new OPEN
// aggregate and arms the expiry timer. A failure after the fee debit is
// compensated by refunding the fee before the error propagates.
func (e *Engine) CreateAuction(ctx context.Context, sellerID string, in CreateAuctionInput) (*domain.Auction, error) {
	if in.StartingPrice < 1 {
		return nil, fmt.Errorf("%w: starting price must be at least 1", domain.ErrValidation)
	}
	fee, err := listingFee(in.DurationHours)
	if err != nil {
		return nil, err
	}
	if in.BuyNowPrice != 0 && in.BuyNowPrice <= in.StartingPrice {
		return nil, fmt.Errorf("%w: buy-now price must be greater than the starting price", domain.ErrValidation)
	}

	seller, err := e.ledger.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: seller %s", domain.ErrNotFound, sellerID)
	}

	item, err := e.items.FindByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, in.ItemID)
	}
	if item.OwnerID != seller.ID {
		return nil, fmt.Errorf("%w: item %s", domain.ErrOwnership, item.ID)
	}
	if !item.IsAvailable {
		return nil, fmt.Errorf("%w: item %s is already listed", domain.ErrUnavailable, item.ID)
	}
	if seller.Credits < fee {
		return nil, fmt.Errorf("%w: listing fee is %.0f credits", domain.ErrInsufficientFunds, fee)
	}

	if _, err := e.ledger.AdjustCredits(ctx, seller.ID, -fee); err != nil {
		return nil, err
	}

	// The conditional claim is the authoritative availability check;
	// the pre-read above only rejects early. A concurrent listing of
	// the same item loses here and gets its fee back.
	if _, err := e.items.SetAvailability(ctx, item.ID, false); err != nil {
		e.refund(ctx, seller.ID, fee, "listing fee after claim failure")
		return nil, err
	}

	createdAt := e.now()
	auction := &domain.Auction{
		ID:            utils.GenerateID("auction"),
		Title:         item.Name,
		Description:   item.Description,
		SellerID:      seller.ID,
		StartingPrice: in.StartingPrice,
		CurrentPrice:  in.StartingPrice,
		BuyNowPrice:   in.BuyNowPrice,
		Status:        domain.AuctionOpen,
		Item:          *item,
		CreatedAt:     createdAt,
		EndsAt:        createdAt.Add(time.Duration(in.DurationHours) * time.Hour),
		Bids:          []domain.Bid{},
	}
	auction.Item.IsAvailable = false

	if err := e.store.Save(ctx, auction); err != nil {
		if _, availErr := e.items.SetAvailability(ctx, item.ID, true); availErr != nil {
			e.log.Error("Failed to restore item availability", "item_id", item.ID, "error", availErr)
		}
		e.refund(ctx, seller.ID, fee, "listing fee after persistence failure")
		return nil, err
	}

	if err := e.emitter.AuctionCreated(ctx, auction); err != nil {
		e.log.Error("Failed to emit auction created", "auction_id", auction.ID, "error", err)
	}

	if e.scheduler != nil {
		e.scheduler.ScheduleExpiry(auction.ID, auction.EndsAt)
	}

	e.log.Info("Auction created",
		"auction_id", auction.ID, "seller_id", seller.ID,
		"item_id", item.ID, "ends_at", auction.EndsAt)
	return auction, nil
}

// PlaceBid escrows the bidder's full amount and appends the bid. The
// returned bool is false when the aggregate rejects the bid on business
// grounds (stale amount, closed auction); typed errors cover everything
// the caller did wrong.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (bool, error) {
	e.locks.Lock(auctionID)
	defer e.locks.Unlock(auctionID)

	auction, err := e.store.FindByID(ctx, auctionID)
	if err != nil {
		return false, err
	}
	if auction == nil {
		return false, fmt.Errorf("%w: auction %s", domain.ErrNotFound, auctionID)
	}

	bidder, err := e.ledger.FindByID(ctx, bidderID)
	if err != nil {
		return false, err
	}
	if bidder == nil {
		return false, fmt.Errorf("%w: user %s", domain.ErrNotFound, bidderID)
	}

	if bidder.ID == auction.SellerID {
		return false, fmt.Errorf("%w: auction %s", domain.ErrSelfBid, auction.ID)
	}
	if auction.HasBuyNow() && amount >= auction.BuyNowPrice {
		return false, fmt.Errorf("%w: buy-now price is %.2f", domain.ErrBuyNowRequired, auction.BuyNowPrice)
	}
	if bidder.Credits < amount {
		return false, fmt.Errorf("%w: bid of %.2f", domain.ErrInsufficientFunds, amount)
	}

	bid := domain.Bid{
		ID:        utils.GenerateID("bid"),
		UserID:    bidder.ID,
		AuctionID: auction.ID,
		Amount:    amount,
		CreatedAt: e.now(),
	}

	if !auction.PlaceBid(bid) {
		return false, nil
	}

	// Escrow: the full amount is held for the life of the auction.
	if _, err := e.ledger.AdjustCredits(ctx, bidder.ID, -amount); err != nil {
		return false, err
	}

	if err := e.store.Save(ctx, auction); err != nil {
		e.refund(ctx, bidder.ID, amount, "bid escrow after persistence failure")
		return false, err
	}

	update := domain.AuctionUpdate{
		AuctionID:    auction.ID,
		CurrentPrice: auction.CurrentPrice,
		HighestBid:   &domain.BidSummary{UserID: bid.UserID, Amount: bid.Amount},
		BidsCount:    len(auction.Bids),
	}
	if err := e.emitter.AuctionUpdated(ctx, update); err != nil {
		e.log.Error("Failed to emit auction updated", "auction_id", auction.ID, "error", err)
	}
	e.emitTransaction(ctx, domain.TransactionBid, auction.ID, bid.UserID, bid.Amount)

	e.log.Info("Bid placed",
		"auction_id", auction.ID, "bidder_id", bid.UserID, "amount", bid.Amount)
	return true, nil
}

// BuyNow settles the auction immediately at the buy-now price. On
// success the expiry timer is cancelled and settlement runs inline
// with the known winner instead of waiting for the timer.
func (e *Engine) BuyNow(ctx context.Context, auctionID, buyerID string) (bool, error) {
	e.locks.Lock(auctionID)
	defer e.locks.Unlock(auctionID)

	auction, err := e.store.FindByID(ctx, auctionID)
	if err != nil {
		return false, err
	}
	if auction == nil {
		return false, fmt.Errorf("%w: auction %s", domain.ErrNotFound, auctionID)
	}
	if !auction.HasBuyNow() {
		return false, fmt.Errorf("%w: auction %s has no buy-now price", domain.ErrValidation, auction.ID)
	}

	buyer, err := e.ledger.FindByID(ctx, buyerID)
	if err != nil {
		return false, err
	}
	if buyer == nil {
		return false, fmt.Errorf("%w: user %s", domain.ErrNotFound, buyerID)
	}
	if buyer.ID == auction.SellerID {
		return false, fmt.Errorf("%w: auction %s", domain.ErrSelfBid, auction.ID)
	}
	if buyer.Credits < auction.BuyNowPrice {
		return false, fmt.Errorf("%w: buy-now price is %.2f", domain.ErrInsufficientFunds, auction.BuyNowPrice)
	}

	price := auction.BuyNowPrice
	if !auction.BuyNow(buyer.ID) {
		return false, nil
	}

	if _, err := e.ledger.AdjustCredits(ctx, buyer.ID, -price); err != nil {
		return false, err
	}

	if err := e.store.Save(ctx, auction); err != nil {
		e.refund(ctx, buyer.ID, price, "buy-now payment after persistence failure")
		return false, err
	}

	if e.scheduler != nil {
		e.scheduler.CancelExpiry(auction.ID)
	}

	update := domain.AuctionUpdate{
		AuctionID:    auction.ID,
		CurrentPrice: auction.CurrentPrice,
		HighestBid:   &domain.BidSummary{UserID: buyer.ID, Amount: price},
		BidsCount:    len(auction.Bids),
	}
	if err := e.emitter.AuctionUpdated(ctx, update); err != nil {
		e.log.Error("Failed to emit auction updated", "auction_id", auction.ID, "error", err)
	}
	e.emitTransaction(ctx, domain.TransactionBuyNow, auction.ID, buyer.ID, price)

	// Settle right away with the known winner; the lock is already held.
	if err := e.finalize(ctx, auction.ID, buyer.ID); err != nil {
		e.log.Error("Settlement after buy-now failed", "auction_id", auction.ID, "error", err)
		return true, err
	}

	e.log.Info("Buy-now completed",
		"auction_id", auction.ID, "buyer_id", buyer.ID, "price", price)
	return true, nil
}

// FinalizeAuction settles an auction: called by the scheduler with no
// winner (winnerID empty, derived from bid history) or after buy-now
// with the winner known. Safe to call on an already-settled auction.
func (e *Engine) FinalizeAuction(ctx context.Context, auctionID, winnerID string) error {
	e.locks.Lock(auctionID)
	defer e.locks.Unlock(auctionID)

	return e.finalize(ctx, auctionID, winnerID)
}

// ListOpenAuctions returns every auction still accepting bids.
func (e *Engine) ListOpenAuctions(ctx context.Context) ([]*domain.Auction, error) {
	return e.store.FindByStatus(ctx, domain.AuctionOpen)
}

func (e *Engine) GetAuctionByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	auction, err := e.store.FindByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, fmt.Errorf("%w: auction %s", domain.ErrNotFound, auctionID)
	}
	return auction, nil
}

// GetPurchasedAuctions lists closed auctions the user won.
func (e *Engine) GetPurchasedAuctions(ctx context.Context, userID string) ([]*domain.Auction, error) {
	return e.store.FindClosedByBuyer(ctx, userID)
}

// GetSoldAuctions lists closed auctions the user sold.
func (e *Engine) GetSoldAuctions(ctx context.Context, userID string) ([]*domain.Auction, error) {
	return e.store.FindClosedBySeller(ctx, userID)
}

func (e *Engine) emitTransaction(ctx context.Context, txType domain.TransactionType, auctionID, userID string, amount float64) {
	tx := domain.Transaction{
		Type:      txType,
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		CreatedAt: e.now(),
	}
	if err := e.emitter.TransactionCreated(ctx, tx); err != nil {
		e.log.Error("Failed to emit transaction", "auction_id", auctionID, "error", err)
	}
}

// refund reverses a debit during compensation. A failed reversal is
// logged loudly; the original error still propagates to the caller.
func (e *Engine) refund(ctx context.Context, userID string, amount float64, reason string) {
	if _, err := e.ledger.AdjustCredits(ctx, userID, amount); err != nil {
		e.log.Error("Compensation refund failed",
			"user_id", userID, "amount", amount, "reason", reason, "error", err)
	}
}

func listingFee(durationHours int) (float64, error) {
	switch durationHours {
	case 24:
		return feeFor24h, nil
	case 48:
		return feeFor48h, nil
	default:
		return 0, fmt.Errorf("%w: duration must be 24 or 48 hours", domain.ErrValidation)
	}
}
