package domain

import (
	"sort"
	"strings"
	"time"
)

type AuctionStatus string

const (
	AuctionOpen      AuctionStatus = "OPEN"
	AuctionSold      AuctionStatus = "SOLD"
	AuctionClosed    AuctionStatus = "CLOSED"
	AuctionExpired   AuctionStatus = "EXPIRED"
	AuctionCancelled AuctionStatus = "CANCELLED"
)

// ParseStatus normalizes external status input. Any casing is accepted;
// unknown values come back with ok=false.
func ParseStatus(s string) (AuctionStatus, bool) {
	switch AuctionStatus(strings.ToUpper(s)) {
	case AuctionOpen:
		return AuctionOpen, true
	case AuctionSold:
		return AuctionSold, true
	case AuctionClosed:
		return AuctionClosed, true
	case AuctionExpired:
		return AuctionExpired, true
	case AuctionCancelled:
		return AuctionCancelled, true
	default:
		return "", false
	}
}

// Terminal reports whether the status can never transition again.
func (s AuctionStatus) Terminal() bool {
	return s != AuctionOpen
}

// Bid is an immutable value appended to an auction's history.
type Bid struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AuctionID string    `json:"auction_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Auction is the aggregate root: the mutable auction record plus its
// append-only bid history, treated as one consistency boundary.
type Auction struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	SellerID        string        `json:"seller_id"`
	StartingPrice   float64       `json:"starting_price"`
	CurrentPrice    float64       `json:"current_price"`
	BuyNowPrice     float64       `json:"buy_now_price,omitempty"` // 0 means no buy-now
	Status          AuctionStatus `json:"status"`
	Item            Item          `json:"item"` // snapshot taken at creation
	CreatedAt       time.Time     `json:"created_at"`
	EndsAt          time.Time     `json:"ends_at"`
	Bids            []Bid         `json:"bids"`
	HighestBidderID string        `json:"highest_bidder_id,omitempty"`
}

// HasBuyNow reports whether an immediate-purchase price is configured.
func (a *Auction) HasBuyNow() bool {
	return a.BuyNowPrice > 0
}

// PlaceBid applies a bid to the aggregate. It returns false without
// mutation when the auction is not open, the amount does not strictly
// exceed the current price, or the amount reaches the buy-now price.
func (a *Auction) PlaceBid(bid Bid) bool {
	if a.Status != AuctionOpen {
		return false
	}
	if bid.Amount <= a.CurrentPrice {
		return false
	}
	if a.HasBuyNow() && bid.Amount >= a.BuyNowPrice {
		return false
	}

	a.CurrentPrice = bid.Amount
	a.Bids = append(a.Bids, bid)
	a.HighestBidderID = bid.UserID
	return true
}

// BuyNow short-circuits the auction to a sale at the buy-now price.
func (a *Auction) BuyNow(buyerID string) bool {
	if !a.HasBuyNow() || a.Status != AuctionOpen {
		return false
	}
	a.CurrentPrice = a.BuyNowPrice
	a.markAsSold(buyerID)
	return true
}

func (a *Auction) markAsSold(buyerID string) {
	a.Status = AuctionSold
	a.HighestBidderID = buyerID
}

// CloseAsExpired terminates an open auction without a winner path.
func (a *Auction) CloseAsExpired() {
	if a.Status == AuctionOpen {
		a.Status = AuctionExpired
	}
}

// Close marks the auction settled. Terminal; never re-entered.
func (a *Auction) Close() {
	a.Status = AuctionClosed
}

// WinningBid returns the bid that would win were the auction settled
// from history alone: highest amount, ties broken by earliest bid.
func (a *Auction) WinningBid() (Bid, bool) {
	if len(a.Bids) == 0 {
		return Bid{}, false
	}
	sorted := make([]Bid, len(a.Bids))
	copy(sorted, a.Bids)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount != sorted[j].Amount {
			return sorted[i].Amount > sorted[j].Amount
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted[0], true
}

// HighestBid returns the most recent accepted bid, if any.
func (a *Auction) HighestBid() (Bid, bool) {
	if len(a.Bids) == 0 {
		return Bid{}, false
	}
	return a.Bids[len(a.Bids)-1], true
}

// Clone returns a deep copy so stored aggregates never alias in-flight
// mutations.
func (a *Auction) Clone() *Auction {
	cp := *a
	cp.Bids = make([]Bid, len(a.Bids))
	copy(cp.Bids, a.Bids)
	return &cp
}
