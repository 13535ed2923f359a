package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eshop.org/internal/auth"
)

func TestPublicRuleMatching(t *testing.T) {
	rules := publicRules("/api/v1")

	isPublic := func(method, path string) bool {
		for _, rule := range rules {
			if rule.matches(method, path) {
				return true
			}
		}
		return false
	}

	cases := []struct {
		method string
		path   string
		public bool
	}{
		{http.MethodGet, "/api/v1/products", true},
		{http.MethodGet, "/api/v1/products/abc", true},
		{http.MethodGet, "/api/v1/products/get/featured/3", true},
		{http.MethodPost, "/api/v1/products", false},
		{http.MethodPut, "/api/v1/products/abc", false},
		{http.MethodDelete, "/api/v1/products/abc", false},
		{http.MethodGet, "/api/v1/categories", true},
		{http.MethodPost, "/api/v1/categories", false},
		{http.MethodPost, "/api/v1/users/login", true},
		{http.MethodPost, "/api/v1/users/register", true},
		{http.MethodGet, "/api/v1/users/login", false},
		{http.MethodGet, "/api/v1/users", false},
		{http.MethodGet, "/api/v1/orders", false},
		{http.MethodGet, "/public/uploads/img.jpg", true},
		{http.MethodGet, "/healthz", true},
		{http.MethodGet, "/metrics", true},
		{http.MethodGet, "/api/v1/productsful", false},
	}
	for _, tc := range cases {
		if got := isPublic(tc.method, tc.path); got != tc.public {
			t.Errorf("%s %s: public=%v, want %v", tc.method, tc.path, got, tc.public)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := extractBearerToken(""); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := extractBearerToken("Basic dXNlcjpwYXNz"); err == nil {
		t.Fatal("expected error for non-bearer scheme")
	}
	if _, err := extractBearerToken("Bearer "); err == nil {
		t.Fatal("expected error for empty token")
	}
	tok, err := extractBearerToken("bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("case-insensitive scheme rejected: %v", err)
	}
	if tok != "abc.def.ghi" {
		t.Fatalf("unexpected token: %q", tok)
	}
}

func TestGateDefaultDeny(t *testing.T) {
	api := newTestAPI(t)

	// Public catalog read passes without any header.
	resp := api.get("/api/v1/products", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public GET status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Same path, protected method.
	resp = api.post("/api/v1/products", map[string]any{"name": "x"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("protected POST status: %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] == "" {
		t.Fatal("expected error message")
	}

	// Unlisted route: protected even though no handler matched yet.
	resp = api.get("/api/v1/orders", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("orders without token status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGateRejectsBadTokens(t *testing.T) {
	api := newTestAPI(t)

	errorFor := func(header string) (int, string) {
		resp := api.get("/api/v1/orders", nil, map[string]string{"Authorization": header})
		defer resp.Body.Close()
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		msg, _ := body["error"].(string)
		return resp.StatusCode, msg
	}

	code, msg := errorFor("Bearer not-a-jwt")
	if code != http.StatusUnauthorized || msg != "malformed token" {
		t.Fatalf("malformed: %d %q", code, msg)
	}

	// Valid shape, foreign signature.
	foreign, err := auth.NewTokens("some-other-secret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	forged, err := foreign.Issue("u1", true)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code, msg = errorFor("Bearer " + forged)
	if code != http.StatusUnauthorized || msg != "invalid token signature" {
		t.Fatalf("forged: %d %q", code, msg)
	}

	// Expired tokens report their own reason.
	past := time.Now().Add(-48 * time.Hour)
	stale, err := auth.NewTokens(testSecret, auth.WithClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	expired, err := stale.Issue("u1", false)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	code, msg = errorFor("Bearer " + expired)
	if code != http.StatusUnauthorized || msg != "token expired" {
		t.Fatalf("expired: %d %q", code, msg)
	}
}

func TestGatePassesOptions(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	a := &API{apiPrefix: defaultAPIPrefix}
	handler := a.withAuth(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if !called {
		t.Fatal("OPTIONS request did not reach the next handler")
	}
}

func TestNonAdminForbiddenOnAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.registerAndLogin("buyer@example.com", "buyerpass", false)

	for _, path := range []string{
		"/api/v1/users",
		"/api/v1/orders/get/totalsales",
		"/api/v1/orders/get/count",
		"/api/v1/users/get/count",
	} {
		resp := api.get(path, nil, bearerHeader(token))
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: got %d, want 403", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestAuthorizationHeaderIgnoredOnPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	// Garbage credentials must not break anonymous catalog reads.
	resp := api.get("/api/v1/products", nil, map[string]string{"Authorization": "Bearer garbage"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public route with bad token: %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		t.Fatalf("unexpected content type: %s", resp.Header.Get("Content-Type"))
	}
}
