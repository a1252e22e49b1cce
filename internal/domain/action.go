package domain

// LogicalState is the application-level meaning of the light, independent of
// how the relay is wired.
type LogicalState int

const (
	StateOff LogicalState = iota
	StateOn
)

func (s LogicalState) String() string {
	if s == StateOn {
		return "ON"
	}
	return "OFF"
}

// Level is the raw electrical signal written to a pin.
type Level int

const (
	LevelLow Level = iota
	LevelHigh
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

type ActionKind int

const (
	ActionIgnore ActionKind = iota
	ActionActionable
)

// Reasons attached to ignored actions.
const (
	ReasonUnknownDevice     = "unknown device"
	ReasonUnsupportedDevice = "unsupported device"
	ReasonUnknownTarget     = "unknown target"
	ReasonHalted            = "dispatcher halted"
)

// ResolvedAction is either Actionable (Device, Target, State set) or Ignore
// (Reason set).
type ResolvedAction struct {
	Kind   ActionKind
	Device DeviceKind
	Target string
	State  LogicalState
	Reason string
}

func Actionable(device DeviceKind, target string, state LogicalState) ResolvedAction {
	return ResolvedAction{
		Kind:   ActionActionable,
		Device: device,
		Target: target,
		State:  state,
	}
}

func Ignore(reason string) ResolvedAction {
	return ResolvedAction{Kind: ActionIgnore, Reason: reason}
}

func (a ResolvedAction) IsActionable() bool {
	return a.Kind == ActionActionable
}
