package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the engine and its collaborators. Callers classify
// failures with errors.Is; every error returned across a package boundary
// wraps exactly one of these sentinels.
var (
	// ErrInvalidInput reports a malformed or out-of-range input value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports a missing plant or soil profile.
	ErrNotFound = errors.New("not found")

	// ErrComputation reports degenerate arithmetic, such as a zero flow rate.
	ErrComputation = errors.New("computation error")

	// ErrFetch reports a failure acquiring the weather observation.
	ErrFetch = errors.New("fetch error")

	// ErrStore reports a failure persisting cycle results.
	ErrStore = errors.New("store error")

	// ErrCycleInProgress is returned when a cycle is requested while another runs.
	ErrCycleInProgress = errors.New("irrigation cycle already in progress")
)

var (
	// ErrMissingPlantProfile is the NotFound variant for unknown plants.
	ErrMissingPlantProfile = fmt.Errorf("%w: plant profile", ErrNotFound)

	// ErrUnknownSoilType is the NotFound variant for soil types absent from the table.
	ErrUnknownSoilType = fmt.Errorf("%w: soil type", ErrNotFound)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func computef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrComputation, fmt.Sprintf(format, args...))
}
