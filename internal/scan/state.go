package scan

// State is the scan loop's position in its state machine.
type State int

const (
	// StateIdle: created, or camera opened but not yet delivering frames.
	StateIdle State = iota
	// StateScanning: decoding frames.
	StateScanning
	// StateFound: a payload was forwarded. Terminal until Reset.
	StateFound
	// StateUnavailable: no usable camera. Terminal until Initialize is retried.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateFound:
		return "found"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Mode selects the retry policy within a tick.
type Mode int

const (
	// ModePerTick makes one decode attempt per tick.
	ModePerTick Mode = iota
	// ModeTightLoop retries within the tick until success, MaxAttempts,
	// Budget or cancellation.
	ModeTightLoop
)

func (m Mode) String() string {
	if m == ModeTightLoop {
		return "tight-loop"
	}
	return "per-tick"
}

// ParseMode maps "per-tick" and "tight-loop" to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "per-tick":
		return ModePerTick, true
	case "tight-loop":
		return ModeTightLoop, true
	default:
		return ModePerTick, false
	}
}
