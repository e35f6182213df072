package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jvorel/stockpilot/internal/api/handlers"
	"github.com/jvorel/stockpilot/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	favouritesHandler *handlers.FavouritesHandler,
	marketHandler *handlers.MarketHandler,
	activityHandler *handlers.ActivityHandler,
	jobsHandler *handlers.JobsHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Favourites CRUD
	api.HandleFunc("/favourites", favouritesHandler.List).Methods("GET")
	api.HandleFunc("/favourites", favouritesHandler.Add).Methods("POST")
	api.HandleFunc("/favourites/{ticker}", favouritesHandler.Remove).Methods("DELETE")

	// Market pipeline
	api.HandleFunc("/market/search", marketHandler.Search).Methods("GET")
	api.HandleFunc("/market/start", marketHandler.Start).Methods("POST")
	api.HandleFunc("/ratings", marketHandler.RatingsCallback).Methods("POST")

	// Activity log
	api.HandleFunc("/activity", activityHandler.Recent).Methods("GET")
	api.HandleFunc("/activity/stream", activityHandler.Stream).Methods("GET")

	// Scheduler introspection
	api.HandleFunc("/jobs", jobsHandler.Stats).Methods("GET")

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "stockpilot-api",
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics.
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
