package api

import (
	"net/http"
	"trip-scheduler-service/internal/api/handlers"

	"go.uber.org/zap"
)

type Deps struct {
	Schedules handlers.Scheduler
	Trips     handlers.TripQueries
	Checks    map[string]handlers.Pinger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(log *zap.Logger, deps Deps) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Checks: deps.Checks}
	schedules := &handlers.ScheduleHandler{Service: deps.Schedules}
	trips := &handlers.TripHandler{Service: deps.Trips}

	mux.HandleFunc("/health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)

	mux.HandleFunc("POST /cooperatives/{cooperativeID}/schedules/preview", schedules.Preview)
	mux.HandleFunc("POST /cooperatives/{cooperativeID}/schedules/generate", schedules.Generate)
	mux.HandleFunc("GET /cooperatives/{cooperativeID}/trips", trips.List)
	mux.HandleFunc("POST /trips/{tripID}/deactivate", trips.Deactivate)
	mux.HandleFunc("GET /terminals/{terminalID}/slots", trips.Slots)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
