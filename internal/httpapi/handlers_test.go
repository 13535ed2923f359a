package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"eshop.org/internal/auth"
	"eshop.org/internal/catalog"
	"eshop.org/internal/orders"
	"eshop.org/internal/stream"
)

const testSecret = "test-secret"

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	tokens, err := auth.NewTokens(testSecret)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	accounts := auth.NewService(auth.NewMemoryUserStore(), tokens)
	cat := catalog.NewService(catalog.NewMemoryProductStore(), catalog.NewMemoryCategoryStore())
	ord := orders.NewService(orders.NewMemoryStore(), cat)

	api := New(ReadyProbe{}, "test", Deps{
		Accounts: accounts,
		Tokens:   tokens,
		Catalog:  cat,
		Orders:   ord,
		Stream:   stream.New(),
	})
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// registerAndLogin creates an account and returns its id and token.
func (c *apiClient) registerAndLogin(email, password string, admin bool) (string, string) {
	c.t.Helper()
	resp := c.post("/api/v1/users/register", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": password,
		"isAdmin":  admin,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register status: %d", resp.StatusCode)
	}
	user := decode[map[string]any](c.t, resp)
	id, _ := user["id"].(string)
	if id == "" {
		c.t.Fatalf("register returned no id: %v", user)
	}

	resp = c.post("/api/v1/users/login", map[string]any{
		"email":    email,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status: %d", resp.StatusCode)
	}
	payload := decode[map[string]any](c.t, resp)
	token, _ := payload["token"].(string)
	if token == "" {
		c.t.Fatalf("empty token issued")
	}
	return id, token
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/healthz", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestRegisterLoginAndCredentialErrors(t *testing.T) {
	api := newTestAPI(t)
	api.registerAndLogin("shopper@example.com", "s3cret", false)

	// Wrong password and unknown email respond with the same message.
	resp := api.post("/api/v1/users/login", map[string]any{
		"email":    "shopper@example.com",
		"password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong password status: %d", resp.StatusCode)
	}
	wrongPass := decode[map[string]any](t, resp)

	resp = api.post("/api/v1/users/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "s3cret",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown email status: %d", resp.StatusCode)
	}
	unknown := decode[map[string]any](t, resp)
	if wrongPass["error"] != unknown["error"] {
		t.Fatalf("login errors leak account existence: %q vs %q", wrongPass["error"], unknown["error"])
	}

	// Duplicate registration conflicts.
	resp = api.post("/api/v1/users/register", map[string]any{
		"name":     "Clone",
		"email":    "Shopper@Example.com",
		"password": "other",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status: %d", resp.StatusCode)
	}
}

func TestRegisterNeverReturnsPasswordHash(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post("/api/v1/users/register", map[string]any{
		"name":     "Hash Check",
		"email":    "hash@example.com",
		"password": "s3cret",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	user := decode[map[string]any](t, resp)
	for _, key := range []string{"passwordHash", "password", "PasswordHash"} {
		if _, ok := user[key]; ok {
			t.Fatalf("response leaks credential field %q", key)
		}
	}
}

func TestStorefrontFlow(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)
	shopperID, shopperToken := api.registerAndLogin("buyer@example.com", "buyerpass", false)

	// Admin creates a category and two products.
	resp := api.post("/api/v1/categories", map[string]any{
		"name": "Books", "icon": "book", "color": "#aabbcc",
	}, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status: %d", resp.StatusCode)
	}
	category := decode[map[string]any](t, resp)
	categoryID := category["id"].(string)

	productIDs := make([]string, 0, 2)
	for _, p := range []map[string]any{
		{"name": "Go in Practice", "price": 4500, "category": categoryID, "countInStock": 10, "isFeatured": true},
		{"name": "Raft Explained", "price": 2500, "category": categoryID, "countInStock": 3},
	} {
		resp = api.post("/api/v1/products", p, bearerHeader(adminToken))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create product status: %d", resp.StatusCode)
		}
		created := decode[map[string]any](t, resp)
		productIDs = append(productIDs, created["id"].(string))
	}

	// Catalog browsing is public.
	resp = api.get("/api/v1/products", url.Values{"categories": []string{categoryID}}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list products status: %d", resp.StatusCode)
	}
	if got := decode[[]map[string]any](t, resp); len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}

	resp = api.get("/api/v1/products/get/featured/5", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("featured status: %d", resp.StatusCode)
	}
	if got := decode[[]map[string]any](t, resp); len(got) != 1 {
		t.Fatalf("expected 1 featured product, got %d", len(got))
	}

	// Shopper places an order; the total is priced server-side.
	resp = api.post("/api/v1/orders", map[string]any{
		"orderItems": []map[string]any{
			{"product": productIDs[0], "quantity": 2},
			{"product": productIDs[1], "quantity": 1},
		},
		"shippingAddress1": "1 Main St",
		"city":             "Springfield",
		"zip":              "12345",
		"country":          "US",
		"phone":            "555-0100",
	}, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order status: %d", resp.StatusCode)
	}
	order := decode[map[string]any](t, resp)
	if got := order["totalPrice"].(float64); got != 2*4500+2500 {
		t.Fatalf("unexpected order total: %v", got)
	}
	if order["user"] != shopperID {
		t.Fatalf("order user mismatch: %v", order["user"])
	}
	orderID := order["id"].(string)

	// Owner reads the order; another shopper cannot.
	resp = api.get("/api/v1/orders/"+orderID, nil, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get own order status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	_, otherToken := api.registerAndLogin("other@example.com", "otherpass", false)
	resp = api.get("/api/v1/orders/"+orderID, nil, bearerHeader(otherToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign order read status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin ships the order and reads the aggregates.
	resp = api.put("/api/v1/orders/"+orderID, map[string]any{"status": 1}, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update order status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["status"].(float64) != 1 {
		t.Fatalf("status not updated: %v", updated["status"])
	}

	resp = api.get("/api/v1/orders/get/totalsales", nil, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("totalsales status: %d", resp.StatusCode)
	}
	sales := decode[map[string]any](t, resp)
	if sales["totalSales"].(float64) != 2*4500+2500 {
		t.Fatalf("unexpected total sales: %v", sales["totalSales"])
	}

	resp = api.get("/api/v1/orders/get/count", nil, bearerHeader(adminToken))
	counts := decode[map[string]any](t, resp)
	if counts["orderCount"].(float64) != 1 {
		t.Fatalf("unexpected order count: %v", counts["orderCount"])
	}

	resp = api.get("/api/v1/orders/get/userorders/"+shopperID, nil, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("userorders status: %d", resp.StatusCode)
	}
	if got := decode[[]map[string]any](t, resp); len(got) != 1 {
		t.Fatalf("expected 1 user order, got %d", len(got))
	}
}

func TestProductGalleryUpdate(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)

	resp := api.post("/api/v1/categories", map[string]any{"name": "Gear"}, bearerHeader(adminToken))
	category := decode[map[string]any](t, resp)

	resp = api.post("/api/v1/products", map[string]any{
		"name": "Camera", "price": 99900, "category": category["id"], "countInStock": 1,
	}, bearerHeader(adminToken))
	product := decode[map[string]any](t, resp)
	id := product["id"].(string)

	resp = api.put("/api/v1/products/gallery-images/"+id, map[string]any{
		"images": []string{"/public/uploads/a.jpg", "/public/uploads/b.jpg"},
	}, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("gallery update status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	imgs, _ := updated["images"].([]any)
	if len(imgs) != 2 {
		t.Fatalf("expected 2 gallery images, got %v", updated["images"])
	}
}

func TestUserAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)
	shopperID, shopperToken := api.registerAndLogin("buyer@example.com", "buyerpass", false)

	resp := api.get("/api/v1/users", nil, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users status: %d", resp.StatusCode)
	}
	if got := decode[[]map[string]any](t, resp); len(got) != 2 {
		t.Fatalf("expected 2 users, got %d", len(got))
	}

	resp = api.get("/api/v1/users/get/count", nil, bearerHeader(adminToken))
	count := decode[map[string]any](t, resp)
	if count["userCount"].(float64) != 2 {
		t.Fatalf("unexpected user count: %v", count["userCount"])
	}

	// Non-admin listing is forbidden.
	resp = api.get("/api/v1/users", nil, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin list status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Profile update without a password keeps the login working.
	resp = api.put("/api/v1/users/"+shopperID, map[string]any{
		"phone": "555-0199",
	}, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update user status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/api/v1/users/login", map[string]any{
		"email":    "buyer@example.com",
		"password": "buyerpass",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login after update status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admin deletes the account.
	resp = api.do(http.MethodDelete, "/api/v1/users/"+shopperID, nil, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete user status: %d", resp.StatusCode)
	}
	deleted := decode[map[string]any](t, resp)
	if deleted["success"] != true {
		t.Fatalf("unexpected delete body: %v", deleted)
	}
}

func TestAdminCreatesUserDirectly(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)
	_, shopperToken := api.registerAndLogin("buyer@example.com", "buyerpass", false)

	body := map[string]any{
		"name":     "Back Office",
		"email":    "office@example.com",
		"password": "officepass",
	}

	resp := api.post("/api/v1/users", body, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create status: %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	if created["email"] != "office@example.com" {
		t.Fatalf("unexpected created user: %v", created)
	}

	// The route is admin-only and never public.
	resp = api.post("/api/v1/users", body, bearerHeader(shopperToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin create status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/api/v1/users", body, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminSurvivesPartialProfileUpdate(t *testing.T) {
	api := newTestAPI(t)
	adminID, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)

	// Update omitting isAdmin must not demote the account.
	resp := api.put("/api/v1/users/"+adminID, map[string]any{
		"phone": "555-0101",
	}, bearerHeader(adminToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["isAdmin"] != true {
		t.Fatalf("partial update dropped the admin flag: %v", updated["isAdmin"])
	}

	// A fresh login issues a token that still opens admin routes.
	resp = api.post("/api/v1/users/login", map[string]any{
		"email":    "admin@example.com",
		"password": "adminpass",
	}, nil)
	payload := decode[map[string]any](t, resp)
	freshToken, _ := payload["token"].(string)

	resp = api.get("/api/v1/users", nil, bearerHeader(freshToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin route after update: %d", resp.StatusCode)
	}
}

func TestUnknownCategoryRejected(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.registerAndLogin("admin@example.com", "adminpass", true)

	resp := api.post("/api/v1/products", map[string]any{
		"name": "Orphan", "price": 100, "category": "nope", "countInStock": 1,
	}, bearerHeader(adminToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", resp.StatusCode)
	}
}
