package mysql

import (
	"context"
	"database/sql"
	"errors"

	"auction-marketplace/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

// AuctionStore is a MySQL-backed implementation of the auction store
// port, for deployments that want durable closed-auction history. One
// auctions row per aggregate, the item snapshot flattened into it;
// bids are append-only rows keyed by bid id.
type AuctionStore struct {
	db *sql.DB
}

func NewAuctionStore(db *sql.DB) *AuctionStore {
	return &AuctionStore{db: db}
}

func (s *AuctionStore) Save(ctx context.Context, auction *domain.Auction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO auctions
            (id, title, description, seller_id, starting_price, current_price,
             buy_now_price, status, highest_bidder_id, created_at, ends_at,
             item_id, item_owner_id, item_name, item_description, item_type, item_available)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE
            current_price = VALUES(current_price),
            buy_now_price = VALUES(buy_now_price),
            status = VALUES(status),
            highest_bidder_id = VALUES(highest_bidder_id),
            item_owner_id = VALUES(item_owner_id),
            item_available = VALUES(item_available)
    `
	_, err = tx.ExecContext(ctx, query,
		auction.ID, auction.Title, auction.Description, auction.SellerID,
		auction.StartingPrice, auction.CurrentPrice, auction.BuyNowPrice,
		string(auction.Status), auction.HighestBidderID,
		auction.CreatedAt, auction.EndsAt,
		auction.Item.ID, auction.Item.OwnerID, auction.Item.Name,
		auction.Item.Description, auction.Item.Type, auction.Item.IsAvailable)
	if err != nil {
		return err
	}

	// Bids are immutable, so re-saving an aggregate only appends.
	bidQuery := `
        INSERT IGNORE INTO bids (id, auction_id, user_id, amount, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	for _, bid := range auction.Bids {
		if _, err := tx.ExecContext(ctx, bidQuery,
			bid.ID, bid.AuctionID, bid.UserID, bid.Amount, bid.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const auctionColumns = `
    id, title, description, seller_id, starting_price, current_price,
    buy_now_price, status, highest_bidder_id, created_at, ends_at,
    item_id, item_owner_id, item_name, item_description, item_type, item_available
`

func (s *AuctionStore) FindByID(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(s.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := s.loadBids(ctx, auction); err != nil {
		return nil, err
	}
	return auction, nil
}

func (s *AuctionStore) FindByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ?`
	return s.queryAuctions(ctx, query, string(status))
}

func (s *AuctionStore) FindClosedByBuyer(ctx context.Context, userID string) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND highest_bidder_id = ?`
	return s.queryAuctions(ctx, query, string(domain.AuctionClosed), userID)
}

func (s *AuctionStore) FindClosedBySeller(ctx context.Context, userID string) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ? AND seller_id = ?`
	return s.queryAuctions(ctx, query, string(domain.AuctionClosed), userID)
}

func (s *AuctionStore) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, auction := range auctions {
		if err := s.loadBids(ctx, auction); err != nil {
			return nil, err
		}
	}
	return auctions, nil
}

func (s *AuctionStore) loadBids(ctx context.Context, auction *domain.Auction) error {
	query := `
        SELECT id, auction_id, user_id, amount, created_at
        FROM bids WHERE auction_id = ? ORDER BY created_at, id
    `
	rows, err := s.db.QueryContext(ctx, query, auction.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	auction.Bids = []domain.Bid{}
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.UserID, &bid.Amount, &bid.CreatedAt); err != nil {
			return err
		}
		auction.Bids = append(auction.Bids, bid)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var status string

	err := row.Scan(
		&auction.ID, &auction.Title, &auction.Description, &auction.SellerID,
		&auction.StartingPrice, &auction.CurrentPrice, &auction.BuyNowPrice,
		&status, &auction.HighestBidderID, &auction.CreatedAt, &auction.EndsAt,
		&auction.Item.ID, &auction.Item.OwnerID, &auction.Item.Name,
		&auction.Item.Description, &auction.Item.Type, &auction.Item.IsAvailable)
	if err != nil {
		return nil, err
	}

	parsed, ok := domain.ParseStatus(status)
	if !ok {
		return nil, errors.New("unknown auction status " + status)
	}
	auction.Status = parsed
	return &auction, nil
}
