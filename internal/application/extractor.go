package application

import (
	"log/slog"

	"alarm-light/internal/domain"
)

// ExtractCommand pulls the target, cmd and device tags out of a recognition
// result. Only the first value of a tag is used. Values are not validated and
// a result without a semantic interpretation yields an all-absent command.
func ExtractCommand(result domain.RecognitionResult, logger *slog.Logger) domain.SemanticCommand {
	cmd := domain.SemanticCommand{
		Target: firstValue(result.Properties, domain.TagTarget),
		Cmd:    firstValue(result.Properties, domain.TagCmd),
		Device: firstValue(result.Properties, domain.TagDevice),
	}

	if logger != nil {
		logger.Info("recognition result",
			"event_id", result.ID,
			"status", result.Status,
			"text", result.Text,
			"constraint_tag", result.ConstraintTag,
			"count", len(result.Properties),
			"target", cmd.Target.String(),
			"cmd", cmd.Cmd.String(),
			"device", cmd.Device.String(),
		)
	}

	return cmd
}

func firstValue(props map[string][]string, tag string) domain.TagValue {
	values, ok := props[tag]
	if !ok || len(values) == 0 {
		return domain.Absent()
	}
	return domain.Present(values[0])
}

// Interpret runs a result through extraction and resolution. It touches no
// hardware.
func Interpret(result domain.RecognitionResult, logger *slog.Logger) domain.ResolvedAction {
	return Resolve(ExtractCommand(result, logger))
}
