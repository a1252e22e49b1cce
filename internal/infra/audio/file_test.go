package audio_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alarm-light/internal/infra/audio"
)

func TestFileSource_ReadsEachKind(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/drop/a.wav":  "RIFF....WAVEfmt audio data",
		"/drop/b.txt":  "  turn on the alarm light\n",
		"/drop/c.json": `{"text":"alarm on","properties":{"device":["LIGHT"]}}`,
		"/drop/d.md":   "ignored",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	source := audio.NewFileSource(fs, "/drop", discardLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, source.Start(ctx))

	first, err := source.NextUtterance(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVEfmt audio data"), first.Audio)

	second, err := source.NextUtterance(ctx)
	require.NoError(t, err)
	assert.True(t, second.IsText())
	assert.Equal(t, "turn on the alarm light", second.Text)

	third, err := source.NextUtterance(ctx)
	require.NoError(t, err)
	assert.True(t, third.IsInterpreted())
	assert.Equal(t, []string{"LIGHT"}, third.Properties["device"])

	exists, err := afero.Exists(fs, "/drop/a.wav.processed")
	require.NoError(t, err)
	assert.True(t, exists)

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer shortCancel()
	_, err = source.NextUtterance(shortCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFileSource_BadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/drop/bad.json", []byte("{"), 0o644))

	source := audio.NewFileSource(fs, "/drop", discardLogger())
	require.NoError(t, source.Start(context.Background()))

	_, err := source.NextUtterance(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancel()
	_, err = source.NextUtterance(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a bad file is not retried")
}

func TestFileSource_LogsFailedRename(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "/drop/a.txt", []byte("alarm light on"), 0o644))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	source := audio.NewFileSource(afero.NewReadOnlyFs(base), "/drop", logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	u, err := source.NextUtterance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alarm light on", u.Text)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "/drop/a.txt")

	exists, err := afero.Exists(base, "/drop/a.txt")
	require.NoError(t, err)
	assert.True(t, exists, "read-only fs keeps the original file")

	// Still skipped for the rest of this run.
	short, cancelShort := context.WithTimeout(context.Background(), 700*time.Millisecond)
	defer cancelShort()
	_, err = source.NextUtterance(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
