package services

import "trip-scheduler-service/internal/domain"

// OutcomeKind tags the result of an expected business decision.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeSkipped
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "error"
	}
}

// Outcome is Ok(trip), Skipped(reason) or Error(reason).
type Outcome struct {
	Kind   OutcomeKind
	Trip   *domain.TripInstance
	Reason string
}

func okOutcome(trip domain.TripInstance) Outcome {
	return Outcome{Kind: OutcomeOK, Trip: &trip}
}

func skippedOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

func errorOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeError, Reason: reason}
}
