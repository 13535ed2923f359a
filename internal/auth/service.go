package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service wires the credential store, password hasher, and token
// issuer into the registration and login flows.
type Service struct {
	users  UserStore
	tokens *Tokens

	// legacyLoginErrors restores the legacy API's distinct "user
	// does not exist" / "password is wrong" responses. Off by default
	// because the split leaks which accounts exist.
	legacyLoginErrors bool
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithLegacyLoginErrors toggles legacy-compatible login error messages.
func WithLegacyLoginErrors(enabled bool) ServiceOption {
	return func(s *Service) {
		s.legacyLoginErrors = enabled
	}
}

// NewService constructs the account service.
func NewService(users UserStore, tokens *Tokens, opts ...ServiceOption) *Service {
	s := &Service{users: users, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the fields accepted at registration. Password
// is the only raw-credential field and is hashed before persistence.
type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"isAdmin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// UpdateInput carries a partial profile update. An empty Password
// keeps the stored hash unchanged, and a nil IsAdmin keeps the stored
// flag.
type UpdateInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	IsAdmin   *bool  `json:"isAdmin"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Register hashes the raw password and persists the user. It never
// issues a token; the client logs in afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		IsAdmin:      in.IsAdmin,
		Street:       in.Street,
		Apartment:    in.Apartment,
		Zip:          in.Zip,
		City:         in.City,
		Country:      in.Country,
		DateCreated:  time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credential pair and issues a bearer token
// carrying the user's id and admin flag.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", s.loginFailure(ErrUnknownEmail)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", s.loginFailure(ErrUnknownEmail)
		}
		return nil, "", err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, "", s.loginFailure(ErrWrongPassword)
	}
	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) loginFailure(specific error) error {
	if s.legacyLoginErrors {
		return specific
	}
	return ErrInvalidCredentials
}

// GetUser loads a single account.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.users.Find(ctx, id)
}

// ListUsers returns all accounts in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

// CountUsers returns the number of accounts.
func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.users.Delete(ctx, id)
}

// UpdateUser applies a partial profile update. The password is
// rehashed only when a new raw password is supplied; otherwise the
// existing hash is carried over byte for byte.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateInput) (*User, error) {
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) != "" {
		user.Name = strings.TrimSpace(in.Name)
	}
	if strings.TrimSpace(in.Email) != "" {
		user.Email = strings.TrimSpace(strings.ToLower(in.Email))
	}
	if in.Password != "" {
		hash, err := HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if strings.TrimSpace(in.Phone) != "" {
		user.Phone = strings.TrimSpace(in.Phone)
	}
	if in.IsAdmin != nil {
		user.IsAdmin = *in.IsAdmin
	}
	if in.Street != "" {
		user.Street = in.Street
	}
	if in.Apartment != "" {
		user.Apartment = in.Apartment
	}
	if in.Zip != "" {
		user.Zip = in.Zip
	}
	if in.City != "" {
		user.City = in.City
	}
	if in.Country != "" {
		user.Country = in.Country
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
