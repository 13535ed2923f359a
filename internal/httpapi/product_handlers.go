package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"eshop.org/internal/catalog"
)

type galleryRequest struct {
	Images []string `json:"images"`
}

func (a *API) handleProductsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProducts(w, r)
	case http.MethodPost:
		a.createProduct(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProductSubtree(w http.ResponseWriter, r *http.Request) {
	path := a.subPath(r, "products")
	switch {
	case path == "get/count":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.productCount(w, r)
	case strings.HasPrefix(path, "get/featured"):
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.featuredProducts(w, r, strings.TrimPrefix(path, "get/featured"))
	case strings.HasPrefix(path, "gallery-images/"):
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.setProductGallery(w, r, strings.TrimPrefix(path, "gallery-images/"))
	case path == "" || strings.Contains(path, "/"):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		switch r.Method {
		case http.MethodGet:
			a.getProduct(w, r, path)
		case http.MethodPut:
			a.updateProduct(w, r, path)
		case http.MethodDelete:
			a.deleteProduct(w, r, path)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

func (a *API) listProducts(w http.ResponseWriter, r *http.Request) {
	var categoryIDs []string
	if raw := strings.TrimSpace(r.URL.Query().Get("categories")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				categoryIDs = append(categoryIDs, id)
			}
		}
	}
	products, err := a.catalog.ListProducts(r.Context(), categoryIDs)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := a.catalog.GetProduct(r.Context(), id)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) createProduct(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in catalog.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.product.create", map[string]any{"product": p.ID})
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in catalog.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.catalog.UpdateProduct(r.Context(), id, in)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.product.update", map[string]any{"product": id})
	writeJSON(w, http.StatusOK, p)
}

func (a *API) deleteProduct(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := a.catalog.DeleteProduct(r.Context(), id); err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.product.delete", map[string]any{"product": id})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "the product is deleted",
	})
}

func (a *API) productCount(w http.ResponseWriter, r *http.Request) {
	n, err := a.catalog.CountProducts(r.Context())
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"productCount": n})
}

// featuredProducts serves /get/featured and /get/featured/{count};
// without a count every featured product is returned.
func (a *API) featuredProducts(w http.ResponseWriter, r *http.Request, rest string) {
	limit := 0
	if rest = strings.Trim(rest, "/"); rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil || v < 0 {
			writeError(w, r, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		limit = v
	}
	products, err := a.catalog.FeaturedProducts(r.Context(), limit)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) setProductGallery(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	var req galleryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.catalog.SetProductGallery(r.Context(), id, req.Images)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.product.gallery", map[string]any{"product": id})
	writeJSON(w, http.StatusOK, p)
}
