package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"eshop.org/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// createUser is the back-office counterpart of register: same input,
// admin only.
func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.create", map[string]any{"user": user.ID})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUserSubtree(w http.ResponseWriter, r *http.Request) {
	path := a.subPath(r, "users")
	switch {
	case path == "register":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.register(w, r)
	case path == "login":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.login(w, r)
	case path == "get/count":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.userCount(w, r)
	case path == "" || strings.Contains(path, "/"):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		switch r.Method {
		case http.MethodGet:
			a.getUser(w, r, path)
		case http.MethodPut:
			a.updateUser(w, r, path)
		case http.MethodDelete:
			a.deleteUser(w, r, path)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.accounts.Register(r.Context(), in)
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.register", map[string]any{"user": user.ID})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, token, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if isLoginFailure(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	a.audit(r.Context(), "users.login", map[string]any{"user": user.ID})
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user.Email,
		"token": token,
	})
}

func isLoginFailure(err error) bool {
	return errors.Is(err, auth.ErrInvalidCredentials) ||
		errors.Is(err, auth.ErrUnknownEmail) ||
		errors.Is(err, auth.ErrWrongPassword)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	users, err := a.accounts.ListUsers(r.Context())
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id string) {
	user, err := a.accounts.GetUser(r.Context(), id)
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var in auth.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.accounts.UpdateUser(r.Context(), id, in)
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.update", map[string]any{"user": id})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	if !a.requireAdmin(w, r) {
		return
	}
	if err := a.accounts.DeleteUser(r.Context(), id); err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.delete", map[string]any{"user": id})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "the user is deleted",
	})
}

func (a *API) userCount(w http.ResponseWriter, r *http.Request) {
	if !a.requireAdmin(w, r) {
		return
	}
	n, err := a.accounts.CountUsers(r.Context())
	if err != nil {
		a.handleAccountError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userCount": n})
}

func (a *API) handleAccountError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, "email is already registered")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
