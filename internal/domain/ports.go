package domain

import (
	"context"
	"time"
)

// UserLedger exposes balance lookup and atomic credit adjustment.
type UserLedger interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	// FindByIdentity resolves an opaque credential (session token,
	// username) to a user. Used by transport adapters, not the engine.
	FindByIdentity(ctx context.Context, credential string) (*User, error)
	// AdjustCredits applies delta (may be negative) atomically and
	// returns the updated user. A delta that would drive the balance
	// negative fails with ErrInsufficientFunds.
	AdjustCredits(ctx context.Context, userID string, delta float64) (*User, error)
}

// ItemRegistry exposes item lookup, availability toggling and
// ownership transfer.
type ItemRegistry interface {
	FindByID(ctx context.Context, itemID string) (*Item, error)
	// SetAvailability flips the availability flag. Claiming an item
	// (available=false) is conditional and fails with ErrUnavailable
	// when the item is already claimed; releasing is idempotent. The
	// claim is what keeps an item on at most one open listing.
	SetAvailability(ctx context.Context, itemID string, available bool) (*Item, error)
	TransferOwnership(ctx context.Context, fromOwner, toOwner, itemID string) error
}

// AuctionStore holds the authoritative state of every auction.
type AuctionStore interface {
	Save(ctx context.Context, auction *Auction) error
	FindByID(ctx context.Context, auctionID string) (*Auction, error)
	FindByStatus(ctx context.Context, status AuctionStatus) ([]*Auction, error)
	FindClosedByBuyer(ctx context.Context, userID string) ([]*Auction, error)
	FindClosedBySeller(ctx context.Context, userID string) ([]*Auction, error)
}

// EventEmitter announces lifecycle events to the real-time transport.
// Fire-and-forget: the engine logs failures and moves on.
type EventEmitter interface {
	AuctionCreated(ctx context.Context, auction *Auction) error
	AuctionUpdated(ctx context.Context, update AuctionUpdate) error
	AuctionClosed(ctx context.Context, auction *Auction) error
	TransactionCreated(ctx context.Context, tx Transaction) error
}

// EventSubscriber feeds published events to a handler, blocking until
// ctx is cancelled.
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}

// UserNotifier informs a single user out of band (winner notification).
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

// ExpiryScheduler arms one cancellable expiry task per open auction.
type ExpiryScheduler interface {
	ScheduleExpiry(auctionID string, at time.Time)
	CancelExpiry(auctionID string)
	Start(ctx context.Context) error
	Stop() error
}

// LeaderElection gates background work in multi-instance deployments.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
