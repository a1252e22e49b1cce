package domain

// SessionState tracks a single-use continuous recognition session.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionListening
	SessionStopping
	SessionDisposed
)

func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionListening:
		return "listening"
	case SessionStopping:
		return "stopping"
	case SessionDisposed:
		return "disposed"
	default:
		return "invalid"
	}
}

// EngineState is what a recognition engine reports while it runs.
type EngineState string

const (
	EngineIdle       EngineState = "idle"
	EngineCapturing  EngineState = "capturing"
	EngineProcessing EngineState = "processing"
	EngineStopped    EngineState = "stopped"
)
