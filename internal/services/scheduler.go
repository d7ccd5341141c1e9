package services

import (
	"context"
	"sync"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Finalizer is the slice of the engine the scheduler needs: settle an
// auction, deriving the winner from bid history when none is given.
type Finalizer interface {
	FinalizeAuction(ctx context.Context, auctionID, winnerID string) error
}

// ExpiryScheduler arms one in-process timer per open auction and runs a
// periodic cron sweep that finalizes anything overdue. The timers give
// precise expiry inside one process; the sweep recovers auctions whose
// timers were lost to a restart. With leader election configured the
// sweep runs on the leader only, so multiple instances never settle
// the same auction twice (the finalize no-op guard is the back stop).
type ExpiryScheduler struct {
	finalizer  Finalizer
	store      domain.AuctionStore
	leader     domain.LeaderElection // nil means always sweep
	instanceID string
	cron       *cron.Cron
	log        logger.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewExpiryScheduler(
	finalizer Finalizer,
	store domain.AuctionStore,
	leader domain.LeaderElection,
	instanceID string,
	sweepSpec string,
	log logger.Logger,
) (*ExpiryScheduler, error) {
	s := &ExpiryScheduler{
		finalizer:  finalizer,
		store:      store,
		leader:     leader,
		instanceID: instanceID,
		cron:       cron.New(),
		log:        log,
		timers:     make(map[string]*time.Timer),
	}

	if _, err := s.cron.AddFunc(sweepSpec, s.sweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start rearms timers for every open auction already in the store and
// begins the sweep. Auctions that expired while the process was down
// fire immediately, and buy-now sales persisted as SOLD but never
// settled are scheduled for immediate settlement.
func (s *ExpiryScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting expiry scheduler")

	open, err := s.store.FindByStatus(ctx, domain.AuctionOpen)
	if err != nil {
		return err
	}
	for _, auction := range open {
		s.ScheduleExpiry(auction.ID, auction.EndsAt)
	}

	sold, err := s.store.FindByStatus(ctx, domain.AuctionSold)
	if err != nil {
		return err
	}
	for _, auction := range sold {
		s.ScheduleExpiry(auction.ID, time.Now())
	}

	s.cron.Start()
	return nil
}

func (s *ExpiryScheduler) Stop() error {
	s.log.Info("Stopping expiry scheduler")
	s.cron.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	return nil
}

// ScheduleExpiry arms (or re-arms) the expiry timer for one auction.
func (s *ExpiryScheduler) ScheduleExpiry(auctionID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[auctionID]; exists {
		timer.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.timers[auctionID] = time.AfterFunc(delay, func() {
		s.fire(auctionID)
	})
}

// CancelExpiry disarms the timer when the auction reaches a terminal
// state by another path (buy-now). A timer that already fired is
// harmless: finalize no-ops on settled auctions.
func (s *ExpiryScheduler) CancelExpiry(auctionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[auctionID]; exists {
		timer.Stop()
		delete(s.timers, auctionID)
	}
}

func (s *ExpiryScheduler) fire(auctionID string) {
	s.mu.Lock()
	delete(s.timers, auctionID)
	s.mu.Unlock()

	s.log.Info("Auction expiry timer fired", "auction_id", auctionID)

	// Empty winner forces the bid-history-derived settlement path.
	if err := s.finalizer.FinalizeAuction(context.Background(), auctionID, ""); err != nil {
		s.log.Error("Timer-driven finalize failed", "auction_id", auctionID, "error", err)
	}
}

// sweep finalizes every open auction past its end time and settles
// any sale stuck in SOLD. Recovery path for timers lost to a restart
// and for settlements interrupted mid-flight; also the only expiry
// path on replicas that never armed the timer.
func (s *ExpiryScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Leader check failed, skipping sweep", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}

	open, err := s.store.FindByStatus(ctx, domain.AuctionOpen)
	if err != nil {
		s.log.Error("Sweep failed to list open auctions", "error", err)
		return
	}

	now := time.Now()
	for _, auction := range open {
		if auction.EndsAt.After(now) {
			continue
		}
		s.log.Info("Sweep finalizing overdue auction",
			"auction_id", auction.ID, "ends_at", auction.EndsAt)
		if err := s.finalizer.FinalizeAuction(ctx, auction.ID, ""); err != nil {
			s.log.Error("Sweep finalize failed", "auction_id", auction.ID, "error", err)
		}
	}

	// SOLD means a buy-now was persisted but its settlement never
	// completed. No overdue check: such a sale is always ready.
	sold, err := s.store.FindByStatus(ctx, domain.AuctionSold)
	if err != nil {
		s.log.Error("Sweep failed to list sold auctions", "error", err)
		return
	}
	for _, auction := range sold {
		s.log.Info("Sweep settling interrupted buy-now sale", "auction_id", auction.ID)
		if err := s.finalizer.FinalizeAuction(ctx, auction.ID, ""); err != nil {
			s.log.Error("Sweep finalize failed", "auction_id", auction.ID, "error", err)
		}
	}
}
