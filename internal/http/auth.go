package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
	"github.com/speoper/dispatch/internal/util"

	httpmiddleware "github.com/speoper/dispatch/internal/http/middleware"
)

type credentialsRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	ServiceType *string `json:"serviceType"`
}

// Login authenticates a user and returns an access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email and password are required", nil)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			// One message for unknown email and wrong password; account
			// existence must not be inferable from the response.
			WriteError(w, http.StatusUnauthorized, "AUTH", "invalid credentials", nil)
		case errors.Is(err, user.ErrTooManyAttempts):
			w.Header().Set("Retry-After", "900")
			WriteError(w, http.StatusTooManyRequests, "RATE_LIMIT", "too many login attempts", nil)
		default:
			h.writeInternalError(w, err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Registration creates a worker account and returns its first token.
func (h *Handler) Registration(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid body", nil)
		return
	}

	if err := util.ValidateEmail(req.Email); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.ValidatePassword(req.Password); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	var serviceType *transport.Type
	if req.ServiceType != nil {
		st, err := transport.ParseType(*req.ServiceType)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		serviceType = &st
	}

	result, err := h.users.Register(r.Context(), req.Email, req.Password, serviceType)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			WriteError(w, http.StatusConflict, "CONFLICT", "user already exists", nil)
			return
		}
		h.writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, result)
}

// Me returns the profile behind the current token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject := httpmiddleware.GetSubject(r.Context())
	if subject == 0 {
		WriteError(w, http.StatusUnauthorized, "AUTH", "missing identity", nil)
		return
	}

	u, err := h.users.GetByID(r.Context(), subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("user %d not found", subject), nil)
			return
		}
		h.writeInternalError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": u})
}
