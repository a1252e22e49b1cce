package application

import "alarm-light/internal/domain"

// GPIOProvider hands out pins by numeric id. A provider must refuse to open a
// pin that is already held by someone else.
type GPIOProvider interface {
	OpenPin(number int) (Pin, error)
}

// Pin is the narrow hardware contract the Actuator depends on.
type Pin interface {
	Number() int
	SetOutput() error
	Write(level domain.Level) error
	Close() error
}

// Switch is what the dispatcher drives.
type Switch interface {
	Set(state domain.LogicalState) error
}
