package services

import (
	"context"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"
	"trip-scheduler-service/internal/ports"

	"go.uber.org/zap"
)

// TripService exposes persisted trips and terminal slot suggestions.
type TripService struct {
	log       *zap.Logger
	trips     ports.TripRepository
	occupancy ports.OccupancyRepository
	terminals ports.TerminalRegistry
	window    domain.OperatingWindow
}

func NewTripService(
	log *zap.Logger,
	trips ports.TripRepository,
	occupancy ports.OccupancyRepository,
	terminals ports.TerminalRegistry,
	defaultWindow domain.OperatingWindow,
) *TripService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TripService{
		log:       log,
		trips:     trips,
		occupancy: occupancy,
		terminals: terminals,
		window:    defaultWindow,
	}
}

func (s *TripService) ListActive(ctx context.Context, cooperativeID string, r domain.DateRange) (trips []domain.TripInstance, err error) {
	const op = "service.TripService.ListActive"
	defer obs.Time(ctx, op)(&err)

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidRequest, err)
	}
	trips, err = s.trips.ListActive(ctx, cooperativeID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return trips, nil
}

// Deactivate soft-deletes a trip. Unknown or already inactive trips yield
// domain.ErrNotFound.
func (s *TripService) Deactivate(ctx context.Context, tripID string) (err error) {
	const op = "service.TripService.Deactivate"
	defer obs.Time(ctx, op)(&err)

	if err := s.trips.Deactivate(ctx, tripID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("trip deactivated", zap.String("trip_id", tripID))
	return nil
}

// SuggestSlots ranks the terminal's departure slots on date against its
// persisted occupancy. A zero window uses the service default.
func (s *TripService) SuggestSlots(ctx context.Context, terminalID string, date time.Time, window domain.OperatingWindow, count int) (slots []SlotSuggestion, err error) {
	const op = "service.TripService.SuggestSlots"
	defer obs.Time(ctx, op)(&err)

	if window == (domain.OperatingWindow{}) {
		window = s.window
	}
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidRequest, err)
	}

	terminal, err := s.terminals.GetTerminal(ctx, terminalID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts, err := s.occupancy.SlotCounts(ctx, terminalID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: slot counts: %w", op, err)
	}

	ledger := NewTerminalOccupancyLedger([]domain.Terminal{terminal})
	ledger.Load(terminalID, date, counts)

	slots, err = ledger.SuggestBestSlots(terminalID, date, window, count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slots, nil
}
