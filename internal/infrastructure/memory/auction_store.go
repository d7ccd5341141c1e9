package memory

import (
	"context"
	"sync"

	"auction-marketplace/internal/domain"
)

// AuctionStore is the volatile in-process reference implementation of
// the auction store port. Aggregates are deep-copied on the way in and
// out so callers never share mutable state with the store.
type AuctionStore struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction
}

func NewAuctionStore() *AuctionStore {
	return &AuctionStore{auctions: make(map[string]*domain.Auction)}
}

func (s *AuctionStore) Save(ctx context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auctions[auction.ID] = auction.Clone()
	return nil
}

func (s *AuctionStore) FindByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, nil
	}
	return auction.Clone(), nil
}

func (s *AuctionStore) FindByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, auction := range s.auctions {
		if auction.Status == status {
			out = append(out, auction.Clone())
		}
	}
	return out, nil
}

func (s *AuctionStore) FindClosedByBuyer(ctx context.Context, userID string) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, auction := range s.auctions {
		if auction.Status == domain.AuctionClosed && auction.HighestBidderID == userID {
			out = append(out, auction.Clone())
		}
	}
	return out, nil
}

func (s *AuctionStore) FindClosedBySeller(ctx context.Context, userID string) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, auction := range s.auctions {
		if auction.Status == domain.AuctionClosed && auction.SellerID == userID {
			out = append(out, auction.Clone())
		}
	}
	return out, nil
}
