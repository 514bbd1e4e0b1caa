package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/speoper/dispatch/internal/http/middleware"
)

// Handler wires transport routes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transports", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
		r.With(httpmiddleware.RequireDispatcher).Post("/", h.handleCreate)
		r.With(httpmiddleware.RequireDispatcher).Patch("/{id}", h.handleUpdate)
		r.With(httpmiddleware.RequireDispatcher).Delete("/{id}", h.handleDelete)
	})
}

type createRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	PeopleCapacity int     `json:"peopleCapacity"`
	Type           string  `json:"type"`
	PhotoURL       *string `json:"photoUrl"`
}

type updateRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	PeopleCapacity *int    `json:"peopleCapacity"`
	Type           *string `json:"type"`
	PhotoURL       *string `json:"photoUrl"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	transports, err := h.service.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if transports == nil {
		transports = []Transport{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"transports": transports})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid transport id")
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("transport %d not found", id))
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transport": t})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	t, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"transport": t})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid transport id")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid body")
		return
	}

	input, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	t, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("transport %d not found", id))
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transport": t})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid transport id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("transport %d not found", id))
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (r createRequest) toInput() (CreateInput, error) {
	if strings.TrimSpace(r.Name) == "" {
		return CreateInput{}, errors.New("name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return CreateInput{}, errors.New("description is required")
	}
	if r.PeopleCapacity <= 0 {
		return CreateInput{}, errors.New("peopleCapacity must be positive")
	}

	typ, err := ParseType(r.Type)
	if err != nil {
		return CreateInput{}, err
	}

	return CreateInput{
		Name:           r.Name,
		Description:    r.Description,
		PeopleCapacity: r.PeopleCapacity,
		Type:           typ,
		PhotoURL:       r.PhotoURL,
	}, nil
}

func (r updateRequest) toInput() (UpdateInput, error) {
	input := UpdateInput{
		Name:           r.Name,
		Description:    r.Description,
		PeopleCapacity: r.PeopleCapacity,
		PhotoURL:       r.PhotoURL,
	}

	if r.PeopleCapacity != nil && *r.PeopleCapacity <= 0 {
		return UpdateInput{}, errors.New("peopleCapacity must be positive")
	}
	if r.Type != nil {
		typ, err := ParseType(*r.Type)
		if err != nil {
			return UpdateInput{}, err
		}
		input.Type = &typ
	}

	return input, nil
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("transport handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
