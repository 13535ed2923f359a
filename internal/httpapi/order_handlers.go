package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"eshop.org/internal/auth"
	"eshop.org/internal/orders"
	"eshop.org/internal/stream"
)

type orderStatusRequest struct {
	Status int `json:"status"`
}

func (a *API) handleOrdersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listOrders(w, r)
	case http.MethodPost:
		a.createOrder(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOrderSubtree(w http.ResponseWriter, r *http.Request) {
	path := a.subPath(r, "orders")
	switch {
	case path == "get/totalsales":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.totalSales(w, r)
	case path == "get/count":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.orderCount(w, r)
	case strings.HasPrefix(path, "get/userorders/"):
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.userOrders(w, r, strings.TrimPrefix(path, "get/userorders/"))
	case path == "stream":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.Stream(w, r)
	case path == "" || strings.Contains(path, "/"):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		switch r.Method {
		case http.MethodGet:
			a.getOrder(w, r, path)
		case http.MethodPut:
			a.updateOrderStatus(w, r, path)
		case http.MethodDelete:
			a.deleteOrder(w, r, path)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var in orders.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	order, err := a.orders.Create(r.Context(), userID, in)
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}

	if a.stream != nil {
		a.stream.Publish(stream.OrderEvent{
			Kind:       "order.created",
			OrderID:    order.ID,
			UserID:     order.UserID,
			TotalPrice: order.TotalPrice,
			Status:     order.Status,
			Timestamp:  time.Now().UTC(),
		})
	}
	a.audit(r.Context(), "orders.create", map[string]any{
		"order":      order.ID,
		"totalPrice": order.TotalPrice,
	})
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) listOrders(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	list, err := a.orders.List(r.Context())
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) getOrder(w http.ResponseWriter, r *http.Request, id string) {
	order, err := a.orders.Get(r.Context(), id)
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	if !a.callerMayRead(r, order.UserID) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// userOrders lists one user's orders. Non-admins only see their own.
func (a *API) userOrders(w http.ResponseWriter, r *http.Request, userID string) {
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if !a.callerMayRead(r, userID) {
		writeError(w, r, http.StatusForbidden, "access denied")
		return
	}
	list, err := a.orders.ListForUser(r.Context(), userID)
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) updateOrderStatus(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	var req orderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	order, err := a.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	if a.stream != nil {
		a.stream.Publish(stream.OrderEvent{
			Kind:       "order.status",
			OrderID:    order.ID,
			UserID:     order.UserID,
			TotalPrice: order.TotalPrice,
			Status:     order.Status,
			Timestamp:  time.Now().UTC(),
		})
	}
	a.audit(r.Context(), "orders.status", map[string]any{
		"order":  id,
		"status": order.Status,
	})
	writeJSON(w, http.StatusOK, order)
}

func (a *API) deleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := a.orders.Delete(r.Context(), id); err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	a.audit(r.Context(), "orders.delete", map[string]any{"order": id})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "the order is deleted",
	})
}

func (a *API) totalSales(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	sum, err := a.orders.TotalSales(r.Context())
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totalSales": sum})
}

func (a *API) orderCount(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	n, err := a.orders.Count(r.Context())
	if err != nil {
		a.handleOrdersError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orderCount": n})
}

// callerMayRead allows admins, and otherwise only the owner.
func (a *API) callerMayRead(r *http.Request, ownerID string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.IsAdmin || claims.Subject == ownerID
}

func (a *API) handleOrdersError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orders.ErrInvalidInput),
		errors.Is(err, orders.ErrUnknownProduct),
		errors.Is(err, orders.ErrInvalidStatus):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
