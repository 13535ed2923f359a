package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"eshop.org/internal/auth"
	"eshop.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// publicRule marks one route as reachable without a token. A pattern
// ending in "/*" matches any path below it; everything else is an
// exact match. Method "" matches any method.
type publicRule struct {
	method  string
	pattern string
}

func publicRules(prefix string) []publicRule {
	return []publicRule{
		{http.MethodGet, prefix + "/products"},
		{http.MethodGet, prefix + "/products/*"},
		{http.MethodGet, prefix + "/categories"},
		{http.MethodGet, prefix + "/categories/*"},
		{http.MethodPost, prefix + "/users/login"},
		{http.MethodPost, prefix + "/users/register"},
		{http.MethodGet, "/public/uploads/*"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/readyz"},
		{http.MethodGet, "/metrics"},
	}
}

func (r publicRule) matches(method, path string) bool {
	if r.method != "" && r.method != method {
		return false
	}
	if root, ok := strings.CutSuffix(r.pattern, "/*"); ok {
		return path == root || strings.HasPrefix(path, root+"/")
	}
	return path == r.pattern
}

// withAuth is the gate in front of every route. Unlisted routes are
// protected: no rule match means a valid bearer token is required.
func (a *API) withAuth(next http.Handler) http.Handler {
	rules := publicRules(a.apiPrefix)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		for _, rule := range rules {
			if rule.matches(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.CountAuthRejection("missing_token")
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			reason, msg := classifyTokenError(err)
			obs.CountAuthRejection(reason)
			writeError(w, r, http.StatusUnauthorized, msg)
			return
		}

		ctx := auth.ContextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func classifyTokenError(err error) (reason, msg string) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired", "token expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature", "invalid token signature"
	case errors.Is(err, auth.ErrMalformedToken):
		return "malformed_token", "malformed token"
	default:
		return "invalid_token", "invalid token"
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
