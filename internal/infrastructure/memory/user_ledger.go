package memory

import (
	"context"
	"fmt"
	"sync"

	"auction-marketplace/internal/domain"
)

// UserLedger is the in-process reference implementation of the user
// ledger port. Adjustments are atomic deltas under one mutex, so a user
// bidding in several auctions at once never loses an update.
type UserLedger struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	identities map[string]string // credential -> user id
}

func NewUserLedger() *UserLedger {
	return &UserLedger{
		users:      make(map[string]*domain.User),
		identities: make(map[string]string),
	}
}

// AddUser seeds the ledger. The credential registers the user for
// identity lookups; empty means no credential mapping.
func (l *UserLedger) AddUser(user domain.User, credential string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u := user
	l.users[u.ID] = &u
	if credential != "" {
		l.identities[credential] = u.ID
	}
}

func (l *UserLedger) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (l *UserLedger) FindByIdentity(ctx context.Context, credential string) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.identities[credential]
	if !ok {
		return nil, nil
	}
	cp := *l.users[id]
	return &cp, nil
}

func (l *UserLedger) AdjustCredits(ctx context.Context, userID string, delta float64) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, ok := l.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, userID)
	}
	if user.Credits+delta < 0 {
		return nil, fmt.Errorf("%w: balance %.2f, delta %.2f", domain.ErrInsufficientFunds, user.Credits, delta)
	}

	user.Credits += delta
	cp := *user
	return &cp, nil
}
