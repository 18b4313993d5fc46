package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/commercesignal/engine/internal/model"
)

// SubscriptionStore persists alert subscriptions.
type SubscriptionStore interface {
	// Create stores a new subscription, assigning its ID and timestamps.
	Create(sub model.AlertSubscription) (model.AlertSubscription, error)

	// Get returns a subscription by ID, or ErrNotFound.
	Get(id string) (model.AlertSubscription, error)

	// ListByProduct returns active subscriptions for one product.
	ListByProduct(platform model.Platform, productID string) []model.AlertSubscription

	// List returns every subscription, any status.
	List() []model.AlertSubscription

	// Update replaces a stored subscription, or ErrNotFound.
	Update(sub model.AlertSubscription) error

	// Delete removes a subscription. Deleting an absent ID is a no-op;
	// existence checks belong to the caller.
	Delete(id string)
}

// MemorySubscriptionStore is the in-memory SubscriptionStore.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]model.AlertSubscription
}

// NewMemorySubscriptionStore creates an empty store.
func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[string]model.AlertSubscription)}
}

func (s *MemorySubscriptionStore) Create(sub model.AlertSubscription) (model.AlertSubscription, error) {
	sub.ID = uuid.NewString()
	sub.Status = model.StatusActive
	sub.CreatedAt = time.Now().UTC()
	sub.LastTriggeredAt = nil

	s.mu.Lock()
	s.subs[sub.ID] = sub
	s.mu.Unlock()
	return sub, nil
}

func (s *MemorySubscriptionStore) Get(id string) (model.AlertSubscription, error) {
	s.mu.RLock()
	sub, ok := s.subs[id]
	s.mu.RUnlock()
	if !ok {
		return model.AlertSubscription{}, fmt.Errorf("subscription %s: %w", id, model.ErrNotFound)
	}
	return sub, nil
}

func (s *MemorySubscriptionStore) ListByProduct(platform model.Platform, productID string) []model.AlertSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AlertSubscription
	for _, sub := range s.subs {
		if sub.Platform == platform && sub.ProductID == productID && sub.Status == model.StatusActive {
			out = append(out, sub)
		}
	}
	return out
}

func (s *MemorySubscriptionStore) List() []model.AlertSubscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AlertSubscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *MemorySubscriptionStore) Update(sub model.AlertSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return fmt.Errorf("subscription %s: %w", sub.ID, model.ErrNotFound)
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *MemorySubscriptionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}
