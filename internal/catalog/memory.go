package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"eshop.org/internal/ids"
)

var (
	_ CategoryStore = (*MemoryCategoryStore)(nil)
	_ ProductStore  = (*MemoryProductStore)(nil)
)

// MemoryCategoryStore keeps categories in memory for tests and the
// database-less development mode.
type MemoryCategoryStore struct {
	mu         sync.RWMutex
	categories map[string]*Category
}

func NewMemoryCategoryStore() *MemoryCategoryStore {
	return &MemoryCategoryStore{categories: make(map[string]*Category)}
}

func (s *MemoryCategoryStore) Create(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *MemoryCategoryStore) Find(ctx context.Context, id string) (*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryCategoryStore) List(ctx context.Context) ([]*Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryCategoryStore) Update(ctx context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	s.categories[c.ID] = &cp
	return nil
}

func (s *MemoryCategoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// MemoryProductStore keeps products in memory.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[string]*Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[string]*Product)}
}

func (s *MemoryProductStore) Create(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.DateCreated.IsZero() {
		p.DateCreated = time.Now().UTC()
	}
	cp := clone(p)
	s.products[p.ID] = cp
	return nil
}

func (s *MemoryProductStore) Find(ctx context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (s *MemoryProductStore) List(ctx context.Context, categoryIDs []string) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		filter[id] = struct{}{}
	}
	var out []*Product
	for _, p := range s.products {
		if len(filter) > 0 {
			if _, ok := filter[p.CategoryID]; !ok {
				continue
			}
		}
		out = append(out, clone(p))
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryProductStore) Update(ctx context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	cp := clone(p)
	cp.DateCreated = old.DateCreated
	s.products[p.ID] = cp
	return nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryProductStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

func (s *MemoryProductStore) Featured(ctx context.Context, limit int) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Product
	for _, p := range s.products {
		if p.IsFeatured {
			out = append(out, clone(p))
		}
	}
	sortByCreation(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryProductStore) SetGallery(ctx context.Context, id string, images []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Images = append([]string(nil), images...)
	return nil
}

func clone(p *Product) *Product {
	cp := *p
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

func sortByCreation(products []*Product) {
	sort.Slice(products, func(i, j int) bool {
		if products[i].DateCreated.Equal(products[j].DateCreated) {
			return products[i].ID < products[j].ID
		}
		return products[i].DateCreated.Before(products[j].DateCreated)
	})
}
