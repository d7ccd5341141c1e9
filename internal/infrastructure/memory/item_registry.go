package memory

import (
	"context"
	"fmt"
	"sync"

	"auction-marketplace/internal/domain"
)

// ItemRegistry is the in-process reference implementation of the item
// registry port.
type ItemRegistry struct {
	mu    sync.Mutex
	items map[string]*domain.Item
}

func NewItemRegistry() *ItemRegistry {
	return &ItemRegistry{items: make(map[string]*domain.Item)}
}

func (r *ItemRegistry) AddItem(item domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := item
	r.items[i.ID] = &i
}

func (r *ItemRegistry) FindByID(ctx context.Context, itemID string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (r *ItemRegistry) SetAvailability(ctx context.Context, itemID string, available bool) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	// Claiming is conditional: an already-claimed item can back only
	// one listing, whatever the callers raced on.
	if !available && !item.IsAvailable {
		return nil, fmt.Errorf("%w: item %s is already claimed", domain.ErrUnavailable, itemID)
	}

	item.IsAvailable = available
	cp := *item
	return &cp, nil
}

func (r *ItemRegistry) TransferOwnership(ctx context.Context, fromOwner, toOwner, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[itemID]
	if !ok {
		return fmt.Errorf("%w: item %s", domain.ErrNotFound, itemID)
	}
	if item.OwnerID != fromOwner {
		return fmt.Errorf("%w: item %s", domain.ErrOwnership, itemID)
	}

	item.OwnerID = toOwner
	return nil
}
