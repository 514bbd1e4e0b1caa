package operation

import (
	"github.com/go-chi/chi/v5"
)

// Mount adds operation routes to the router.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
