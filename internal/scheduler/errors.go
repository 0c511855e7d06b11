package scheduler

import "errors"

var (
	// ErrInvalidPlanRequest is returned for a missing or non-positive total duration.
	ErrInvalidPlanRequest = errors.New("invalid plan request")
	// ErrInvalidState is returned when an operation needs a state the scheduler is not in,
	// notably Start without a plan.
	ErrInvalidState = errors.New("invalid scheduler state")
)
