package catalog

import "errors"

var (
	ErrNotFound        = errors.New("catalog: not found")
	ErrInvalidInput    = errors.New("catalog: invalid input")
	ErrUnknownCategory = errors.New("catalog: unknown category")
)
