package http

import (
	"log/slog"
	"net/http"

	_ "eventbritesync/docs"
	"eventbritesync/internal/delivery/http/controllers"
	"eventbritesync/internal/delivery/http/middleware"
	"eventbritesync/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes the HTTP router with all application routes.
// A nil verifier leaves the API routes unauthenticated.
func NewRouter(syncController *controllers.SyncController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Sync
	mux.HandleFunc("POST /sync/events", auth(syncController.SyncOwnedEvents))
	mux.HandleFunc("POST /sync/events/{eventID}", auth(syncController.SyncEvent))
	mux.HandleFunc("POST /sync/events/{eventID}/attendees", auth(syncController.SyncEventAttendees))

	// Mirror
	mux.HandleFunc("GET /events", auth(syncController.ListEvents))
	mux.HandleFunc("GET /events/{eventID}/summary", auth(syncController.EventSummary))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
