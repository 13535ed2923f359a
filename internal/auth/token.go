package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL matches the legacy API: tokens live for one day
// and expiry is the only termination mechanism, there is no revocation
// list.
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrMalformedToken indicates the token does not parse into
	// header/payload/signature segments with the expected claim shape.
	ErrMalformedToken = errors.New("auth: malformed token")
	// ErrInvalidSignature indicates the signature does not match the
	// server secret, or the token declares a signing algorithm other
	// than the configured one.
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	// ErrTokenExpired indicates a structurally valid, correctly signed
	// token whose expiry has passed. Clients should re-login rather
	// than retry.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Claims is the signed payload embedded in a bearer token. The admin
// flag is copied from the user at issuance and is not re-checked
// against the store per request; demoting an admin takes effect only
// after their token expires.
type Claims struct {
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies bearer tokens with a symmetric HS256
// secret. The secret is injected at construction so tests can run with
// distinct secrets; it is never read from ambient process state here.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokensOption configures Tokens.
type TokensOption func(*Tokens)

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) TokensOption {
	return func(t *Tokens) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokensOption {
	return func(t *Tokens) {
		if fn != nil {
			t.now = fn
		}
	}
}

// NewTokens constructs the issuer/verifier pair. A missing secret is a
// configuration error surfaced at startup, not per request.
func NewTokens(secret string, opts ...TokensOption) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is not configured")
	}
	t := &Tokens{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs the identity claims for the given user. Two calls with
// identical input produce different tokens: issued-at advances and the
// jti is random.
func (t *Tokens) Issue(userID string, isAdmin bool) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("auth: userID is required")
	}
	now := t.now().UTC()
	claims := Claims{
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature, and expiry, in that order, and
// returns the decoded claims. Only HS256 is accepted: tokens declaring
// "none" or any other algorithm fail with ErrInvalidSignature.
func (t *Tokens) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{},
		func(tok *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrMalformedToken
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}
