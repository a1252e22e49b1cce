package domain

// Semantic tag names carried by a recognition result.
const (
	TagTarget = "target"
	TagCmd    = "cmd"
	TagDevice = "device"
)

// TargetAlarm is the only target the light can be switched for.
const TargetAlarm = "ALARM"

type DeviceKind string

const (
	DeviceLED     DeviceKind = "LED"
	DeviceLight   DeviceKind = "LIGHT"
	DeviceUnknown DeviceKind = ""
)

type CommandState string

const (
	CommandOn      CommandState = "ON"
	CommandOff     CommandState = "OFF"
	CommandUnknown CommandState = ""
)

// TagValue is a semantic tag that may be absent. The zero value is absent,
// which is not the same thing as a present tag holding "".
type TagValue struct {
	value   string
	present bool
}

func Present(value string) TagValue {
	return TagValue{value: value, present: true}
}

func Absent() TagValue {
	return TagValue{}
}

func (t TagValue) Value() (string, bool) {
	return t.value, t.present
}

func (t TagValue) IsPresent() bool {
	return t.present
}

// Is reports whether the tag is present and equals literal exactly.
func (t TagValue) Is(literal string) bool {
	return t.present && t.value == literal
}

func (t TagValue) String() string {
	if !t.present {
		return "<absent>"
	}
	return t.value
}

// SemanticCommand is the typed view of one recognition result.
type SemanticCommand struct {
	Target TagValue
	Cmd    TagValue
	Device TagValue
}

// DeviceKind maps the device tag onto the known vocabulary. Matching is
// case-sensitive.
func (c SemanticCommand) DeviceKind() DeviceKind {
	switch {
	case c.Device.Is(string(DeviceLED)):
		return DeviceLED
	case c.Device.Is(string(DeviceLight)):
		return DeviceLight
	default:
		return DeviceUnknown
	}
}

func (c SemanticCommand) CommandState() CommandState {
	switch {
	case c.Cmd.Is(string(CommandOn)):
		return CommandOn
	case c.Cmd.Is(string(CommandOff)):
		return CommandOff
	default:
		return CommandUnknown
	}
}
