package handlers

import (
	"context"
	"net/http"
	"trip-scheduler-service/internal/api/dto"
	"trip-scheduler-service/internal/services"
)

type Scheduler interface {
	Preview(ctx context.Context, req services.ScheduleRequest) (*services.ScheduleResult, error)
	Generate(ctx context.Context, req services.ScheduleRequest) (*services.GenerationReport, error)
}

// ScheduleHandler serves preview and generate calls for one cooperative.
type ScheduleHandler struct {
	Service Scheduler
}

func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.Service.Preview(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewPreviewResponse(res))
}

// Generate replaces the cooperative's active trips. A request whose
// simulation yields no trips leaves persisted state untouched.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	report, err := h.Service.Generate(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewGenerateResponse(report))
}

func (h *ScheduleHandler) decode(w http.ResponseWriter, r *http.Request) (services.ScheduleRequest, bool) {
	cooperativeID := r.PathValue("cooperativeID")
	if cooperativeID == "" {
		writeError(w, r, http.StatusBadRequest, "cooperative id is required")
		return services.ScheduleRequest{}, false
	}

	var body dto.ScheduleRequest
	if msg, ok := decodeJSON(r, &body); !ok {
		writeError(w, r, http.StatusBadRequest, msg)
		return services.ScheduleRequest{}, false
	}

	req, err := body.ToService(cooperativeID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return services.ScheduleRequest{}, false
	}
	return req, true
}
