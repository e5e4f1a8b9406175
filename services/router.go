package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RoutePatterns are the paths the router answers, for mounting on the boot
// server's mux. /health and /metrics are served by the boot server itself.
var RoutePatterns = []string{"/apps/", "/run", "/run_sse"}

func NewRouter(sessions *SessionService) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	sessions.RegisterRoutes(r)

	return r
}
