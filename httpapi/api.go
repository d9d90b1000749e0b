package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// API maps routes to store operations. Store calls run through a bounded
// dispatch pool so that lock waits inside the store never stall connection
// acceptance or unrelated requests.
type API struct {
	store  Store
	logger *slog.Logger
	sem    chan struct{}
}

// APIConfig configures an API.
type APIConfig struct {
	// Store is the backing data store. Required.
	Store Store

	// Logger is the structured logger. Required.
	Logger *slog.Logger

	// Workers bounds how many requests may be inside the store at once.
	// Defaults to 64 if zero.
	Workers int
}

// NewAPI creates the route handler for a store.
func NewAPI(config APIConfig) *API {
	if config.Store == nil {
		panic("httpapi.API: Store is required")
	}
	if config.Logger == nil {
		panic("httpapi.API: Logger is required")
	}

	workers := config.Workers
	if workers <= 0 {
		workers = 64
	}

	return &API{
		store:  config.Store,
		logger: config.Logger,
		sem:    make(chan struct{}, workers),
	}
}

// Handler returns the fully wired route handler.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /users/{id}", a.getUser)
	mux.HandleFunc("GET /users/{id}/visits", a.getUserVisits)
	mux.HandleFunc("POST /users/new", a.createUser)
	mux.HandleFunc("POST /users/{id}", a.updateUser)

	mux.HandleFunc("GET /locations/{id}", a.getLocation)
	mux.HandleFunc("GET /locations/{id}/avg", a.getLocationAvg)
	mux.HandleFunc("POST /locations/new", a.createLocation)
	mux.HandleFunc("POST /locations/{id}", a.updateLocation)

	mux.HandleFunc("GET /visits/{id}", a.getVisit)
	mux.HandleFunc("POST /visits/new", a.createVisit)
	mux.HandleFunc("POST /visits/{id}", a.updateVisit)

	return a.logRequests(a.dispatch(mux))
}

// dispatch admits a request into the bounded pool for the duration of its
// store call.
func (a *API) dispatch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.sem <- struct{}{}
		defer func() { <-a.sem }()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Debug("request",
			"id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
