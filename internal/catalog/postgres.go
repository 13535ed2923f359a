package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eshop.org/internal/ids"
)

var (
	_ CategoryStore = (*PGCategoryStore)(nil)
	_ ProductStore  = (*PGProductStore)(nil)
)

// PGCategoryStore implements CategoryStore using PostgreSQL.
type PGCategoryStore struct {
	db *sql.DB
}

func NewPGCategoryStore(db *sql.DB) *PGCategoryStore {
	return &PGCategoryStore{db: db}
}

func (s *PGCategoryStore) Create(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into categories(id, name, icon, color) values($1,$2,$3,$4)`,
		c.ID, c.Name, c.Icon, c.Color,
	)
	return err
}

func (s *PGCategoryStore) Find(ctx context.Context, id string) (*Category, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, icon, color from categories where id=$1`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGCategoryStore) List(ctx context.Context) ([]*Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, icon, color from categories order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

func (s *PGCategoryStore) Update(ctx context.Context, c *Category) error {
	res, err := s.db.ExecContext(ctx,
		`update categories set name=$2, icon=$3, color=$4 where id=$1`,
		c.ID, c.Name, c.Icon, c.Color,
	)
	if err != nil {
		return err
	}
	return rowAffected(res)
}

func (s *PGCategoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id=$1`, id)
	if err != nil {
		return err
	}
	return rowAffected(res)
}

// PGProductStore implements ProductStore using PostgreSQL. The gallery
// is stored as a jsonb array.
type PGProductStore struct {
	db *sql.DB
}

func NewPGProductStore(db *sql.DB) *PGProductStore {
	return &PGProductStore{db: db}
}

const productColumns = `id, name, description, rich_description, image, images, brand, price, category_id, count_in_stock, rating, num_reviews, is_featured, created_at`

func (s *PGProductStore) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	images, _ := json.Marshal(p.Images)
	_, err := s.db.ExecContext(ctx,
		`insert into products(id, name, description, rich_description, image, images, brand, price, category_id, count_in_stock, rating, num_reviews, is_featured)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, images, p.Brand,
		p.Price, p.CategoryID, p.CountInStock, p.Rating, p.NumReviews, p.IsFeatured,
	)
	return err
}

func (s *PGProductStore) Find(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+productColumns+` from products where id=$1`, id)
	return scanProduct(row)
}

func (s *PGProductStore) List(ctx context.Context, categoryIDs []string) ([]*Product, error) {
	query := `select ` + productColumns + ` from products`
	var args []any
	if len(categoryIDs) > 0 {
		placeholders := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		query += ` where category_id in (` + strings.Join(placeholders, ",") + `)`
	}
	query += ` order by created_at asc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *PGProductStore) Update(ctx context.Context, p *Product) error {
	images, _ := json.Marshal(p.Images)
	res, err := s.db.ExecContext(ctx,
		`update products set name=$2, description=$3, rich_description=$4, image=$5, images=$6,
		 brand=$7, price=$8, category_id=$9, count_in_stock=$10, rating=$11, num_reviews=$12, is_featured=$13
		 where id=$1`,
		p.ID, p.Name, p.Description, p.RichDescription, p.Image, images, p.Brand,
		p.Price, p.CategoryID, p.CountInStock, p.Rating, p.NumReviews, p.IsFeatured,
	)
	if err != nil {
		return err
	}
	return rowAffected(res)
}

func (s *PGProductStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from products where id=$1`, id)
	if err != nil {
		return err
	}
	return rowAffected(res)
}

func (s *PGProductStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from products`).Scan(&n)
	return n, err
}

func (s *PGProductStore) Featured(ctx context.Context, limit int) ([]*Product, error) {
	query := `select ` + productColumns + ` from products where is_featured order by created_at asc`
	var args []any
	if limit > 0 {
		query += ` limit $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *PGProductStore) SetGallery(ctx context.Context, id string, images []string) error {
	data, _ := json.Marshal(images)
	res, err := s.db.ExecContext(ctx,
		`update products set images=$2 where id=$1`, id, data)
	if err != nil {
		return err
	}
	return rowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p      Product
		images []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.RichDescription, &p.Image, &images,
		&p.Brand, &p.Price, &p.CategoryID, &p.CountInStock, &p.Rating, &p.NumReviews,
		&p.IsFeatured, &p.DateCreated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(images, &p.Images)
	return &p, nil
}

func collectProducts(rows *sql.Rows) ([]*Product, error) {
	var res []*Product
	for rows.Next() {
		var (
			p      Product
			images []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.RichDescription, &p.Image, &images,
			&p.Brand, &p.Price, &p.CategoryID, &p.CountInStock, &p.Rating, &p.NumReviews,
			&p.IsFeatured, &p.DateCreated); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(images, &p.Images)
		res = append(res, &p)
	}
	return res, rows.Err()
}

func rowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
