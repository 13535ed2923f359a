package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"eshop.org/internal/catalog"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (a *API) handleCategoriesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCategories(w, r)
	case http.MethodPost:
		a.createCategory(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCategoryResource(w http.ResponseWriter, r *http.Request) {
	id := a.subPath(r, "categories")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getCategory(w, r, id)
	case http.MethodPut:
		a.updateCategory(w, r, id)
	case http.MethodDelete:
		a.deleteCategory(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := a.catalog.ListCategories(r.Context())
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (a *API) getCategory(w http.ResponseWriter, r *http.Request, id string) {
	cat, err := a.catalog.GetCategory(r.Context(), id)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (a *API) createCategory(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cat, err := a.catalog.CreateCategory(r.Context(), req.Name, req.Icon, req.Color)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.category.create", map[string]any{"category": cat.ID})
	writeJSON(w, http.StatusCreated, cat)
}

func (a *API) updateCategory(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cat, err := a.catalog.UpdateCategory(r.Context(), id, req.Name, req.Icon, req.Color)
	if err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.category.update", map[string]any{"category": id})
	writeJSON(w, http.StatusOK, cat)
}

func (a *API) deleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := a.catalog.DeleteCategory(r.Context(), id); err != nil {
		a.handleCatalogError(w, r, err)
		return
	}
	a.audit(r.Context(), "catalog.category.delete", map[string]any{"category": id})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "the category is deleted",
	})
}

func (a *API) handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput), errors.Is(err, catalog.ErrUnknownCategory):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
