package httpapi

import (
	"context"
	"net/http"
	"strings"

	"eshop.org/internal/audit"
	"eshop.org/internal/auth"
	"eshop.org/internal/catalog"
	"eshop.org/internal/obs"
	"eshop.org/internal/orders"
	"eshop.org/internal/stream"
)

const defaultAPIPrefix = "/api/v1"

// Deps carries the services the HTTP layer dispatches to.
type Deps struct {
	Accounts *auth.Service
	Tokens   *auth.Tokens
	Catalog  *catalog.Service
	Orders   *orders.Service
	Stream   *stream.Stream

	// APIPrefix defaults to /api/v1.
	APIPrefix string
	// UploadsDir, when set, is served under /public/uploads/.
	UploadsDir string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	apiPrefix  string

	accounts *auth.Service
	tokens   *auth.Tokens
	catalog  *catalog.Service
	orders   *orders.Service
	stream   *stream.Stream

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	prefix := strings.TrimSuffix(deps.APIPrefix, "/")
	if prefix == "" {
		prefix = defaultAPIPrefix
	}

	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		apiPrefix:  prefix,
		accounts:   deps.Accounts,
		tokens:     deps.Tokens,
		catalog:    deps.Catalog,
		orders:     deps.Orders,
		stream:     deps.Stream,
		rateBurst:  50,
		ratePerSec: 25,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc(prefix+"/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// users
	a.mux.HandleFunc(prefix+"/users", a.handleUsersCollection)
	a.mux.HandleFunc(prefix+"/users/", a.handleUserSubtree)

	// categories
	a.mux.HandleFunc(prefix+"/categories", a.handleCategoriesCollection)
	a.mux.HandleFunc(prefix+"/categories/", a.handleCategoryResource)

	// products
	a.mux.HandleFunc(prefix+"/products", a.handleProductsCollection)
	a.mux.HandleFunc(prefix+"/products/", a.handleProductSubtree)

	// orders
	a.mux.HandleFunc(prefix+"/orders", a.handleOrdersCollection)
	a.mux.HandleFunc(prefix+"/orders/", a.handleOrderSubtree)

	// static uploads (product images)
	if deps.UploadsDir != "" {
		fs := http.FileServer(http.Dir(deps.UploadsDir))
		a.mux.Handle("/public/uploads/", http.StripPrefix("/public/uploads/", fs))
	}

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wired http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// subPath strips the API prefix plus the given collection segment from
// the request path. Returns "" for the bare collection root.
func (a *API) subPath(r *http.Request, collection string) string {
	return strings.TrimPrefix(r.URL.Path, a.apiPrefix+"/"+collection+"/")
}

func (a *API) audit(ctx context.Context, event string, fields map[string]any) {
	_ = audit.LogEvent(ctx, event, fields)
}

// requireAdmin enforces the admin role at the handler level. The gate
// has already authenticated the caller; this checks authorization.
func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !claims.IsAdmin {
		writeError(w, r, http.StatusForbidden, "admin privileges required")
		return false
	}
	return true
}
