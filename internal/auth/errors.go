package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")

	// ErrInvalidCredentials is the default login failure. It covers both
	// unknown email and bad password so responses do not reveal which
	// accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Legacy split returned only when the compatibility flag is set.
	ErrUnknownEmail  = errors.New("user does not exist")
	ErrWrongPassword = errors.New("password is wrong")
)
