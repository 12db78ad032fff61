package cycle

// State is the orchestrator phase, exported as the cycle_state gauge.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateEstimating
	StateProcessing
	StatePersisting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching_observation"
	case StateEstimating:
		return "estimating_et0"
	case StateProcessing:
		return "processing_plants"
	case StatePersisting:
		return "persisting"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
