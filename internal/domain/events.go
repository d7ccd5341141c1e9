package domain

import (
	"encoding/json"
	"time"
)

// Event names carried by the real-time transport.
const (
	EventAuctionCreated     = "AUCTION_CREATED"
	EventAuctionUpdated     = "AUCTION_UPDATED"
	EventAuctionClosed      = "AUCTION_CLOSED"
	EventTransactionCreated = "TRANSACTION_CREATED"
)

type TransactionType string

const (
	TransactionBid    TransactionType = "BID"
	TransactionBuyNow TransactionType = "BUY_NOW"
)

// BidSummary is the highest-bid fragment of an update payload.
type BidSummary struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// AuctionUpdate is broadcast after every accepted bid.
type AuctionUpdate struct {
	AuctionID    string      `json:"auction_id"`
	CurrentPrice float64     `json:"current_price"`
	HighestBid   *BidSummary `json:"highest_bid,omitempty"`
	BidsCount    int         `json:"bids_count"`
}

// Transaction records a credit movement visible to clients.
type Transaction struct {
	Type      TransactionType `json:"type"`
	AuctionID string          `json:"auction_id"`
	UserID    string          `json:"user_id"`
	Amount    float64         `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// Event is the wire envelope published to the event transport.
// AuctionID is duplicated outside the payload so relays can route
// without decoding it.
type Event struct {
	Name      string          `json:"event"`
	AuctionID string          `json:"auction_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type EventHandler func(event *Event) error
