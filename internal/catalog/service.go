package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service provides catalog operations over the product and category
// stores. Handlers stay thin: validation and cross-store checks live
// here.
type Service struct {
	products   ProductStore
	categories CategoryStore
}

func NewService(products ProductStore, categories CategoryStore) *Service {
	return &Service{products: products, categories: categories}
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	RichDescription string   `json:"richDescription"`
	Image           string   `json:"image"`
	Images          []string `json:"images"`
	Brand           string   `json:"brand"`
	Price           int64    `json:"price"`
	Category        string   `json:"category"`
	CountInStock    int      `json:"countInStock"`
	Rating          float64  `json:"rating"`
	NumReviews      int      `json:"numReviews"`
	IsFeatured      bool     `json:"isFeatured"`
}

func (s *Service) CreateCategory(ctx context.Context, name, icon, color string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	c := &Category{Name: name, Icon: icon, Color: color}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.categories.Find(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id, name, icon, color string) (*Category, error) {
	c, err := s.categories.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		c.Name = strings.TrimSpace(name)
	}
	if icon != "" {
		c.Icon = icon
	}
	if color != "" {
		c.Color = color
	}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := s.validateProductInput(ctx, in); err != nil {
		return nil, err
	}
	p := &Product{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		RichDescription: in.RichDescription,
		Image:           in.Image,
		Images:          in.Images,
		Brand:           in.Brand,
		Price:           in.Price,
		CategoryID:      in.Category,
		CountInStock:    in.CountInStock,
		Rating:          in.Rating,
		NumReviews:      in.NumReviews,
		IsFeatured:      in.IsFeatured,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.products.Find(ctx, id)
}

// ListProducts returns all products, or only those in the given
// categories when the filter is non-empty.
func (s *Service) ListProducts(ctx context.Context, categoryIDs []string) ([]*Product, error) {
	return s.products.List(ctx, categoryIDs)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProductInput(ctx, in); err != nil {
		return nil, err
	}
	// The stored image survives an update that does not supply one,
	// same contract the legacy API had for uploads.
	image := p.Image
	if in.Image != "" {
		image = in.Image
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.RichDescription = in.RichDescription
	p.Image = image
	p.Brand = in.Brand
	p.Price = in.Price
	p.CategoryID = in.Category
	p.CountInStock = in.CountInStock
	p.Rating = in.Rating
	p.NumReviews = in.NumReviews
	p.IsFeatured = in.IsFeatured
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *Service) CountProducts(ctx context.Context) (int64, error) {
	return s.products.Count(ctx)
}

func (s *Service) FeaturedProducts(ctx context.Context, limit int) ([]*Product, error) {
	if limit < 0 {
		limit = 0
	}
	return s.products.Featured(ctx, limit)
}

// SetProductGallery replaces the gallery image URLs of a product.
func (s *Service) SetProductGallery(ctx context.Context, id string, images []string) (*Product, error) {
	if err := s.products.SetGallery(ctx, id, images); err != nil {
		return nil, err
	}
	return s.products.Find(ctx, id)
}

func (s *Service) validateProductInput(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if in.CountInStock < 0 {
		return fmt.Errorf("%w: countInStock must be >= 0", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if _, err := s.categories.Find(ctx, in.Category); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnknownCategory
		}
		return err
	}
	return nil
}
