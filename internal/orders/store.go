package orders

import "context"

// Store manages order persistence.
type Store interface {
	Create(ctx context.Context, o *Order) error
	Find(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	UpdateStatus(ctx context.Context, id string, status int) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (int64, error)
}
