package domain

import (
	"testing"
	"time"
)

func openAuction() *Auction {
	now := time.Now()
	return &Auction{
		ID:            "auction-1",
		Title:         "Iron Sword",
		SellerID:      "user-seller",
		StartingPrice: 100,
		CurrentPrice:  100,
		BuyNowPrice:   200,
		Status:        AuctionOpen,
		Item:          Item{ID: "item-1", OwnerID: "user-seller"},
		CreatedAt:     now,
		EndsAt:        now.Add(24 * time.Hour),
		Bids:          []Bid{},
	}
}

func bid(id, userID string, amount float64, at time.Time) Bid {
	return Bid{ID: id, UserID: userID, AuctionID: "auction-1", Amount: amount, CreatedAt: at}
}

func TestPlaceBid_StrictlyIncreasing(t *testing.T) {
	t.Parallel()

	a := openAuction()
	now := time.Now()

	if !a.PlaceBid(bid("b1", "user-a", 150, now)) {
		t.Fatal("bid above current price should be accepted")
	}
	if a.CurrentPrice != 150 {
		t.Fatalf("current price = %v, want 150", a.CurrentPrice)
	}
	if a.HighestBidderID != "user-a" {
		t.Fatalf("highest bidder = %q, want user-a", a.HighestBidderID)
	}

	// Equal amounts are ties; ties are rejected.
	if a.PlaceBid(bid("b2", "user-b", 150, now)) {
		t.Fatal("bid equal to current price must be rejected")
	}
	if a.PlaceBid(bid("b3", "user-b", 120, now)) {
		t.Fatal("bid below current price must be rejected")
	}

	if len(a.Bids) != 1 || a.CurrentPrice != 150 {
		t.Fatalf("rejected bids must not mutate the aggregate: bids=%d price=%v", len(a.Bids), a.CurrentPrice)
	}

	latest, ok := a.HighestBid()
	if !ok || latest.ID != "b1" {
		t.Fatalf("highest bid = (%+v, %v), want b1", latest, ok)
	}
}

func TestPlaceBid_RejectsAtBuyNowThreshold(t *testing.T) {
	t.Parallel()

	a := openAuction()
	if a.PlaceBid(bid("b1", "user-a", 200, time.Now())) {
		t.Fatal("bid equal to buy-now price must be rejected")
	}
	if a.PlaceBid(bid("b2", "user-a", 250, time.Now())) {
		t.Fatal("bid above buy-now price must be rejected")
	}
}

func TestPlaceBid_RejectsWhenNotOpen(t *testing.T) {
	t.Parallel()

	for _, status := range []AuctionStatus{AuctionSold, AuctionClosed, AuctionExpired, AuctionCancelled} {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
		a := openAuction()
		a.Status = status
		if a.PlaceBid(bid("b1", "user-a", 150, time.Now())) {
			t.Fatalf("bid on %s auction must be rejected", status)
		}
	}
}

func TestBuyNow(t *testing.T) {
	t.Parallel()

	a := openAuction()
	if !a.BuyNow("user-b") {
		t.Fatal("buy-now on open auction with a price should succeed")
	}
	if a.Status != AuctionSold {
		t.Fatalf("status = %s, want SOLD", a.Status)
	}
	if a.CurrentPrice != 200 {
		t.Fatalf("current price = %v, want the buy-now price 200", a.CurrentPrice)
	}
	if a.HighestBidderID != "user-b" {
		t.Fatalf("highest bidder = %q, want user-b", a.HighestBidderID)
	}

	// Terminal states are one way.
	if a.BuyNow("user-c") {
		t.Fatal("buy-now on a sold auction must fail")
	}
}

func TestBuyNow_RequiresPrice(t *testing.T) {
	t.Parallel()

	a := openAuction()
	a.BuyNowPrice = 0
	if a.BuyNow("user-b") {
		t.Fatal("buy-now without a configured price must fail")
	}
}

func TestCloseAsExpired_OnlyFromOpen(t *testing.T) {
	t.Parallel()

	a := openAuction()
	a.CloseAsExpired()
	if a.Status != AuctionExpired {
		t.Fatalf("status = %s, want EXPIRED", a.Status)
	}

	sold := openAuction()
	sold.Status = AuctionSold
	sold.CloseAsExpired()
	if sold.Status != AuctionSold {
		t.Fatalf("expiring a sold auction must be a no-op, got %s", sold.Status)
	}
}

func TestWinningBid_TieBrokenByEarliestTimestamp(t *testing.T) {
	t.Parallel()

	a := openAuction()
	base := time.Now()
	a.Bids = []Bid{
		bid("b1", "user-a", 150, base),
		bid("b2", "user-b", 180, base.Add(time.Second)),
		bid("b3", "user-c", 180, base.Add(2*time.Second)),
	}

	top, ok := a.WinningBid()
	if !ok {
		t.Fatal("expected a winning bid")
	}
	if top.ID != "b2" {
		t.Fatalf("winning bid = %s, want b2 (earlier of the tied 180s)", top.ID)
	}
}

func TestWinningBid_Empty(t *testing.T) {
	t.Parallel()

	a := openAuction()
	if _, ok := a.WinningBid(); ok {
		t.Fatal("auction without bids must have no winning bid")
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   AuctionStatus
		wantOK bool
	}{
		{"OPEN", AuctionOpen, true},
		{"open", AuctionOpen, true},
		{"Sold", AuctionSold, true},
		{"closed", AuctionClosed, true},
		{"EXPIRED", AuctionExpired, true},
		{"cancelled", AuctionCancelled, true},
		{"UNKNOWN", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseStatus(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestClone_Independence(t *testing.T) {
	t.Parallel()

	a := openAuction()
	a.PlaceBid(bid("b1", "user-a", 150, time.Now()))

	cp := a.Clone()
	cp.PlaceBid(bid("b2", "user-b", 170, time.Now()))
	cp.Close()

	if a.Status != AuctionOpen || len(a.Bids) != 1 || a.CurrentPrice != 150 {
		t.Fatalf("mutating a clone leaked into the original: %+v", a)
	}
}
