package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"eshop.org/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps orders in memory for tests and the database-less
// development mode.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*Order)}
}

func (s *MemoryStore) Create(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = ids.New()
	}
	if o.DateOrdered.IsZero() {
		o.DateOrdered = time.Now().UTC()
	}
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*Order) bool { return true }), nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(o *Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.orders)), nil
}

func (s *MemoryStore) TotalSales(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, o := range s.orders {
		sum += o.TotalPrice
	}
	return sum, nil
}

// collect returns matching orders newest first. Callers hold the lock.
func (s *MemoryStore) collect(match func(*Order) bool) []*Order {
	var out []*Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateOrdered.Equal(out[j].DateOrdered) {
			return out[i].ID > out[j].ID
		}
		return out[i].DateOrdered.After(out[j].DateOrdered)
	})
	return out
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}
