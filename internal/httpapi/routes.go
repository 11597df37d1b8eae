package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes mounts the admin endpoints and the websocket gateway.
func SetupRoutes(h *hub.Hub, ws http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/stats", Stats(h))
	r.Get("/rooms", ListRooms(h))
	r.Method(http.MethodGet, "/ws", ws)
	return r
}
