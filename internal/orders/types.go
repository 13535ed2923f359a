package orders

import "time"

// Order status progression. Stored as a small integer, as in the
// legacy schema.
const (
	StatusPending = iota
	StatusShipped
	StatusDelivered
	StatusCancelled
)

// Item is a single order line. UnitPrice is captured from the product
// catalog at order time so later price changes do not rewrite history.
type Item struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// Order is a placed order with its shipping details.
type Order struct {
	ID               string    `json:"id"`
	Items            []Item    `json:"orderItems"`
	ShippingAddress1 string    `json:"shippingAddress1"`
	ShippingAddress2 string    `json:"shippingAddress2"`
	City             string    `json:"city"`
	Zip              string    `json:"zip"`
	Country          string    `json:"country"`
	Phone            string    `json:"phone"`
	Status           int       `json:"status"`
	TotalPrice       int64     `json:"totalPrice"`
	UserID           string    `json:"user"`
	DateOrdered      time.Time `json:"dateOrdered"`
}
