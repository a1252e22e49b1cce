package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

func command(device, target, cmd *string) domain.SemanticCommand {
	tag := func(v *string) domain.TagValue {
		if v == nil {
			return domain.Absent()
		}
		return domain.Present(*v)
	}
	return domain.SemanticCommand{Device: tag(device), Target: tag(target), Cmd: tag(cmd)}
}

func str(s string) *string { return &s }

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		cmd  domain.SemanticCommand
		want domain.ResolvedAction
	}{
		{
			name: "light alarm on",
			cmd:  command(str("LIGHT"), str("ALARM"), str("ON")),
			want: domain.Actionable(domain.DeviceLight, domain.TargetAlarm, domain.StateOn),
		},
		{
			name: "light alarm off",
			cmd:  command(str("LIGHT"), str("ALARM"), str("OFF")),
			want: domain.Actionable(domain.DeviceLight, domain.TargetAlarm, domain.StateOff),
		},
		{
			name: "light alarm without cmd defaults off",
			cmd:  command(str("LIGHT"), str("ALARM"), nil),
			want: domain.Actionable(domain.DeviceLight, domain.TargetAlarm, domain.StateOff),
		},
		{
			name: "light alarm with lowercase on defaults off",
			cmd:  command(str("LIGHT"), str("ALARM"), str("on")),
			want: domain.Actionable(domain.DeviceLight, domain.TargetAlarm, domain.StateOff),
		},
		{
			name: "light alarm with unknown cmd defaults off",
			cmd:  command(str("LIGHT"), str("ALARM"), str("BLINK")),
			want: domain.Actionable(domain.DeviceLight, domain.TargetAlarm, domain.StateOff),
		},
		{
			name: "light other target",
			cmd:  command(str("LIGHT"), str("KITCHEN"), str("ON")),
			want: domain.Ignore(domain.ReasonUnknownTarget),
		},
		{
			name: "light without target",
			cmd:  command(str("LIGHT"), nil, str("ON")),
			want: domain.Ignore(domain.ReasonUnknownTarget),
		},
		{
			name: "led is unsupported",
			cmd:  command(str("LED"), str("ALARM"), str("ON")),
			want: domain.Ignore(domain.ReasonUnsupportedDevice),
		},
		{
			name: "device match is case sensitive",
			cmd:  command(str("light"), str("ALARM"), str("ON")),
			want: domain.Ignore(domain.ReasonUnknownDevice),
		},
		{
			name: "empty device",
			cmd:  command(str(""), str("ALARM"), str("ON")),
			want: domain.Ignore(domain.ReasonUnknownDevice),
		},
		{
			name: "no tags",
			cmd:  domain.SemanticCommand{},
			want: domain.Ignore(domain.ReasonUnknownDevice),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, application.Resolve(tt.cmd))
		})
	}
}

func TestResolve_LEDNeverActionable(t *testing.T) {
	for _, target := range []*string{nil, str("ALARM"), str("KITCHEN")} {
		for _, cmd := range []*string{nil, str("ON"), str("OFF")} {
			action := application.Resolve(command(str("LED"), target, cmd))
			assert.False(t, action.IsActionable())
		}
	}
}

func TestInterpret(t *testing.T) {
	result := domain.RecognitionResult{
		Properties: map[string][]string{"device": {"LIGHT"}, "target": {"ALARM"}, "cmd": {"ON"}},
	}

	action := application.Interpret(result, discardLogger())

	assert.True(t, action.IsActionable())
	assert.Equal(t, domain.StateOn, action.State)
}
