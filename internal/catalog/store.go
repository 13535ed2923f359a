package catalog

import "context"

// CategoryStore manages the category catalog.
type CategoryStore interface {
	Create(ctx context.Context, c *Category) error
	Find(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

// ProductStore manages products. List filters by category ids when the
// slice is non-empty.
type ProductStore interface {
	Create(ctx context.Context, p *Product) error
	Find(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, categoryIDs []string) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Featured(ctx context.Context, limit int) ([]*Product, error)
	SetGallery(ctx context.Context, id string, images []string) error
}
