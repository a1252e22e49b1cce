package application_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

func TestLevelFor_LowSwitchingRelay(t *testing.T) {
	assert.Equal(t, domain.LevelLow, application.LevelFor(domain.StateOn))
	assert.Equal(t, domain.LevelHigh, application.LevelFor(domain.StateOff))
}

func TestActuator_ConfigureForcesOff(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())

	require.NoError(t, act.Configure())

	assert.True(t, pin.output)
	assert.Equal(t, domain.StateOff, act.State())
	assert.Equal(t, []domain.Level{domain.LevelHigh}, pin.writes())
}

func TestActuator_SetInvertsLevel(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())

	require.NoError(t, act.Set(domain.StateOn))
	assert.Equal(t, domain.StateOn, act.State())

	require.NoError(t, act.Set(domain.StateOff))
	assert.Equal(t, domain.StateOff, act.State())

	assert.Equal(t, []domain.Level{domain.LevelHigh, domain.LevelLow, domain.LevelHigh}, pin.writes())
}

func TestActuator_SetIsIdempotent(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())

	require.NoError(t, act.Set(domain.StateOn))
	require.NoError(t, act.Set(domain.StateOn))

	assert.Equal(t, domain.StateOn, act.State())
	assert.Equal(t, 3, act.Writes())
}

func TestActuator_SetAfterRelease(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())
	require.NoError(t, act.Release())

	err := act.Set(domain.StateOn)

	assert.ErrorIs(t, err, application.ErrActuatorReleased)
	assert.Equal(t, []domain.Level{domain.LevelHigh}, pin.writes())
}

func TestActuator_ReleaseTwice(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())

	require.NoError(t, act.Release())
	require.NoError(t, act.Release())

	assert.Equal(t, 1, pin.closed)
	assert.True(t, act.Released())
}

func TestActuator_WriteErrorKeepsState(t *testing.T) {
	pin := &fakePin{number: 5}
	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())

	pin.writeErr = errors.New("bus fault")
	err := act.Set(domain.StateOn)

	require.Error(t, err)
	assert.Equal(t, domain.StateOff, act.State())
}
