package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eshop.org/internal/catalog"
)

// ProductCatalog is the slice of the catalog the order service needs
// for pricing.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Service places and manages orders. Unit prices and the total are
// always derived from the catalog at order time, never taken from the
// client.
type Service struct {
	store    Store
	products ProductCatalog
}

func NewService(store Store, products ProductCatalog) *Service {
	return &Service{store: store, products: products}
}

// ItemInput is an order line as submitted by the client.
type ItemInput struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// CreateInput carries the fields accepted when placing an order.
type CreateInput struct {
	Items            []ItemInput `json:"orderItems"`
	ShippingAddress1 string      `json:"shippingAddress1"`
	ShippingAddress2 string      `json:"shippingAddress2"`
	City             string      `json:"city"`
	Zip              string      `json:"zip"`
	Country          string      `json:"country"`
	Phone            string      `json:"phone"`
}

// Create places an order for the given user.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one order item is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.ShippingAddress1) == "" {
		return nil, fmt.Errorf("%w: shippingAddress1 is required", ErrInvalidInput)
	}

	items := make([]Item, 0, len(in.Items))
	var total int64
	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
		}
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
			}
			return nil, err
		}
		items = append(items, Item{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total += product.Price * int64(line.Quantity)
	}

	order := &Order{
		Items:            items,
		ShippingAddress1: in.ShippingAddress1,
		ShippingAddress2: in.ShippingAddress2,
		City:             in.City,
		Zip:              in.Zip,
		Country:          in.Country,
		Phone:            in.Phone,
		Status:           StatusPending,
		TotalPrice:       total,
		UserID:           userID,
		DateOrdered:      time.Now().UTC(),
	}
	if err := s.store.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.store.Find(ctx, id)
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]*Order, error) {
	return s.store.List(ctx)
}

// ListForUser returns one user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// UpdateStatus moves an order to a new status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status int) (*Order, error) {
	if status < StatusPending || status > StatusCancelled {
		return nil, ErrInvalidStatus
	}
	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.store.Find(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// TotalSales sums the totals of every order on record.
func (s *Service) TotalSales(ctx context.Context) (int64, error) {
	return s.store.TotalSales(ctx)
}
