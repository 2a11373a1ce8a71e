package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"
	"trip-scheduler-service/internal/api/dto"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/services"
)

const (
	defaultSlotCount = 5
	maxSlotCount     = 96
)

type TripQueries interface {
	ListActive(ctx context.Context, cooperativeID string, r domain.DateRange) ([]domain.TripInstance, error)
	Deactivate(ctx context.Context, tripID string) error
	SuggestSlots(ctx context.Context, terminalID string, date time.Time, window domain.OperatingWindow, count int) ([]services.SlotSuggestion, error)
}

// TripHandler exposes persisted trips and terminal slot suggestions.
type TripHandler struct {
	Service TripQueries
}

func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	cooperativeID := r.PathValue("cooperativeID")

	q := r.URL.Query()
	from, err := domain.ParseDate(q.Get("from"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "from must be a date (YYYY-MM-DD)")
		return
	}
	to := from
	if raw := q.Get("to"); raw != "" {
		if to, err = domain.ParseDate(raw); err != nil {
			writeError(w, r, http.StatusBadRequest, "to must be a date (YYYY-MM-DD)")
			return
		}
	}

	trips, err := h.Service.ListActive(r.Context(), cooperativeID, domain.DateRange{Start: from, End: to})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewListTripsResponse(trips))
}

func (h *TripHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")
	if err := h.Service.Deactivate(r.Context(), tripID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Slots ranks the terminal's 15-minute departure slots for a date.
// Optional open/close query values override the default window.
func (h *TripHandler) Slots(w http.ResponseWriter, r *http.Request) {
	terminalID := r.PathValue("terminalID")

	q := r.URL.Query()
	date, err := domain.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be a date (YYYY-MM-DD)")
		return
	}

	count := defaultSlotCount
	if raw := q.Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil || count < 1 || count > maxSlotCount {
			writeError(w, r, http.StatusBadRequest, "count must be between 1 and 96")
			return
		}
	}

	var window domain.OperatingWindow
	if open, closeAt := q.Get("open"), q.Get("close"); open != "" || closeAt != "" {
		o, errO := domain.ParseTimeOfDay(open)
		c, errC := domain.ParseTimeOfDay(closeAt)
		if errO != nil || errC != nil {
			writeError(w, r, http.StatusBadRequest, "open and close must both be HH:MM")
			return
		}
		window = domain.OperatingWindow{Open: o, Close: c}
	}

	slots, err := h.Service.SuggestSlots(r.Context(), terminalID, date, window, count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewListSlotsResponse(terminalID, date, slots))
}
