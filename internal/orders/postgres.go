package orders

import (
	"context"
	"database/sql"
	"errors"

	"eshop.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Order lines live in an
// order_items table and are hydrated on read.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const orderColumns = `id, shipping_address1, shipping_address2, city, zip, country, phone, status, total_price, user_id, created_at`

func (s *PGStore) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into orders(id, shipping_address1, shipping_address2, city, zip, country, phone, status, total_price, user_id)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.ShippingAddress1, o.ShippingAddress2, o.City, o.Zip, o.Country,
		o.Phone, o.Status, o.TotalPrice, o.UserID,
	); err != nil {
		return err
	}
	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`insert into order_items(order_id, product_id, quantity, unit_price) values($1,$2,$3,$4)`,
			o.ID, item.ProductID, item.Quantity, item.UnitPrice,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PGStore) Find(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+orderColumns+` from orders where id=$1`, id)
	var o Order
	if err := row.Scan(&o.ID, &o.ShippingAddress1, &o.ShippingAddress2, &o.City, &o.Zip,
		&o.Country, &o.Phone, &o.Status, &o.TotalPrice, &o.UserID, &o.DateOrdered); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	items, err := s.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *PGStore) List(ctx context.Context) ([]*Order, error) {
	return s.list(ctx, `select `+orderColumns+` from orders order by created_at desc`)
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.list(ctx,
		`select `+orderColumns+` from orders where user_id=$1 order by created_at desc`, userID)
}

func (s *PGStore) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.ShippingAddress1, &o.ShippingAddress2, &o.City, &o.Zip,
			&o.Country, &o.Phone, &o.Status, &o.TotalPrice, &o.UserID, &o.DateOrdered); err != nil {
			return nil, err
		}
		res = append(res, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range res {
		items, err := s.loadItems(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		o.Items = items
	}
	return res, nil
}

func (s *PGStore) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`select product_id, quantity, unit_price from order_items where order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status int) error {
	res, err := s.db.ExecContext(ctx,
		`update orders set status=$2 where id=$1`, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from orders where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from orders`).Scan(&n)
	return n, err
}

func (s *PGStore) TotalSales(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `select coalesce(sum(total_price), 0) from orders`).Scan(&sum)
	return sum, err
}
