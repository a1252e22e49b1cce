package application

import "alarm-light/internal/domain"

// Resolve classifies a command. Rules are checked in order:
//
//  1. device outside {LED, LIGHT}      -> Ignore("unknown device")
//  2. device LED                       -> Ignore("unsupported device")
//  3. device LIGHT, target not ALARM   -> Ignore("unknown target")
//  4. otherwise                        -> Actionable LIGHT/ALARM
//
// Only the literal ON switches the light on. Any other cmd, including an
// absent one, resolves to Off.
func Resolve(cmd domain.SemanticCommand) domain.ResolvedAction {
	switch cmd.DeviceKind() {
	case domain.DeviceLED:
		// LED control is accepted by the grammar but has no output yet.
		return domain.Ignore(domain.ReasonUnsupportedDevice)
	case domain.DeviceLight:
		if !cmd.Target.Is(domain.TargetAlarm) {
			return domain.Ignore(domain.ReasonUnknownTarget)
		}
		state := domain.StateOff
		if cmd.CommandState() == domain.CommandOn {
			state = domain.StateOn
		}
		return domain.Actionable(domain.DeviceLight, domain.TargetAlarm, state)
	default:
		return domain.Ignore(domain.ReasonUnknownDevice)
	}
}
