package gpio_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
	"alarm-light/internal/infra/gpio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryProvider_SingleOwner(t *testing.T) {
	provider := gpio.NewMemoryProvider(discardLogger())

	pin, err := provider.OpenPin(5)
	require.NoError(t, err)

	_, err = provider.OpenPin(5)
	assert.ErrorIs(t, err, gpio.ErrPinClaimed)

	_, err = provider.OpenPin(6)
	assert.NoError(t, err, "other pins stay available")

	require.NoError(t, pin.Close())
	_, err = provider.OpenPin(5)
	assert.NoError(t, err, "pin is free again after close")
}

func TestMemoryPin_WriteRequiresOutput(t *testing.T) {
	provider := gpio.NewMemoryProvider(discardLogger())
	pin, err := provider.OpenPin(5)
	require.NoError(t, err)

	assert.ErrorIs(t, pin.Write(domain.LevelHigh), gpio.ErrPinNotOutput)

	require.NoError(t, pin.SetOutput())
	require.NoError(t, pin.Write(domain.LevelHigh))
	require.NoError(t, pin.Write(domain.LevelLow))

	mem, ok := provider.Pin(5)
	require.True(t, ok)
	assert.Equal(t, []domain.Level{domain.LevelHigh, domain.LevelLow}, mem.History())
	level, ok := mem.Level()
	assert.True(t, ok)
	assert.Equal(t, domain.LevelLow, level)
}

func TestMemoryPin_ClosedRejectsWrites(t *testing.T) {
	provider := gpio.NewMemoryProvider(discardLogger())
	pin, err := provider.OpenPin(5)
	require.NoError(t, err)
	require.NoError(t, pin.SetOutput())

	require.NoError(t, pin.Close())
	require.NoError(t, pin.Close())

	assert.ErrorIs(t, pin.Write(domain.LevelLow), gpio.ErrPinClosed)
}

func TestMemoryProvider_DrivesActuator(t *testing.T) {
	provider := gpio.NewMemoryProvider(discardLogger())
	pin, err := provider.OpenPin(5)
	require.NoError(t, err)

	act := application.NewActuator(pin, discardLogger())
	require.NoError(t, act.Configure())
	require.NoError(t, act.Set(domain.StateOn))
	require.NoError(t, act.Release())

	mem, _ := provider.Pin(5)
	assert.Equal(t, []domain.Level{domain.LevelHigh, domain.LevelLow}, mem.History())
	assert.True(t, mem.Closed())
}
