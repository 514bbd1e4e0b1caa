package operation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/speoper/dispatch/internal/http/middleware"
	"github.com/speoper/dispatch/internal/transport"
	"github.com/speoper/dispatch/internal/user"
)

// Handler wires operation routes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/operations", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.With(httpmiddleware.RequireDispatcher).Get("/fill-with-ai", h.handleFillWithAI)
		r.Get("/{id}", h.handleGet)
		r.With(httpmiddleware.RequireDispatcher).Post("/", h.handleCreate)
		r.With(httpmiddleware.RequireDispatcher).Patch("/{id}", h.handleUpdate)
		r.With(httpmiddleware.RequireDispatcher).Delete("/{id}", h.handleDelete)
	})
}

type createRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Type        string   `json:"type"`
	PhotoURL    *string  `json:"photoUrl"`
	Transports  []int64  `json:"transports"`
}

type updateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Type        *string  `json:"type"`
	Status      *string  `json:"status"`
	PhotoURL    *string  `json:"photoUrl"`
	Transports  []int64  `json:"transports"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject := httpmiddleware.GetSubject(ctx)
	role := httpmiddleware.GetRole(ctx)
	if subject == 0 || role == "" {
		writeError(w, http.StatusUnauthorized, "AUTH", "missing identity")
		return
	}

	ops, err := h.service.List(ctx, subject, role)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("user %d not found", subject))
			return
		}
		writeInternalError(w, err)
		return
	}
	if ops == nil {
		ops = []Operation{}
	}
	for i := range ops {
		ops[i] = withTransports(ops[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid operation id")
		return
	}

	op, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("operation %d not found", id))
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"operation": withTransports(op)})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	op, err := h.service.Create(ctx, input)
	if err != nil {
		handleWriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"operation": withTransports(op)})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid operation id")
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

	op, err := h.service.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("operation %d not found", id))
			return
		}
		handleWriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"operation": withTransports(op)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid operation id")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("operation %d not found", id))
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) handleFillWithAI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prompt := strings.TrimSpace(r.URL.Query().Get("prompt"))
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "prompt is required")
		return
	}

	result, err := h.service.FillWithAI(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrExtractionDisabled) {
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "ai extraction is not configured")
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"operation": result})
}

func (r createRequest) toInput() (CreateInput, error) {
	if strings.TrimSpace(r.Name) == "" {
		return CreateInput{}, errors.New("name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return CreateInput{}, errors.New("description is required")
	}

	date, err := parseDate(r.Date)
	if err != nil {
		return CreateInput{}, err
	}

	typ, err := ParseType(r.Type)
	if err != nil {
		return CreateInput{}, err
	}

	return CreateInput{
		Name:         r.Name,
		Description:  r.Description,
		Date:         date,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Type:         typ,
		PhotoURL:     r.PhotoURL,
		TransportIDs: r.Transports,
	}, nil
}

func (r updateRequest) toInput() (UpdateInput, error) {
	input := UpdateInput{
		Name:         r.Name,
		Description:  r.Description,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		PhotoURL:     r.PhotoURL,
		TransportIDs: r.Transports,
	}

	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return UpdateInput{}, err
		}
		input.Date = &date
	}
	if r.Type != nil {
		typ, err := ParseType(*r.Type)
		if err != nil {
			return UpdateInput{}, err
		}
		input.Type = &typ
	}
	if r.Status != nil {
		status, err := ParseStatus(*r.Status)
		if err != nil {
			return UpdateInput{}, err
		}
		input.Status = &status
	}

	return input, nil
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid date")
}

// withTransports keeps the wire shape stable: no linkage is [], never null.
func withTransports(op Operation) Operation {
	if op.Transports == nil {
		op.Transports = []transport.Transport{}
	}
	return op
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func handleWriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, transport.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	writeInternalError(w, err)
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
	log.Error().Err(err).Msg("operation handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
