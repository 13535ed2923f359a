package auth

import "context"

// UserStore describes persistence operations required by the account
// subsystem. Email uniqueness is enforced by the underlying store and
// surfaces as ErrAlreadyExists.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
