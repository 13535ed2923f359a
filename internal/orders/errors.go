package orders

import "errors"

var (
	ErrNotFound       = errors.New("orders: not found")
	ErrInvalidInput   = errors.New("orders: invalid input")
	ErrUnknownProduct = errors.New("orders: unknown product")
	ErrInvalidStatus  = errors.New("orders: invalid status")
)
