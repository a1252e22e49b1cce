package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"alarm-light/internal/domain"
)

// FileSource picks up utterances dropped into a directory. Audio files are
// transcribed, .txt files are treated as spoken text and .json files as
// pre-interpreted results. Each file is renamed to *.processed once read.
type FileSource struct {
	fs        afero.Fs
	dir       string
	interval  time.Duration
	processed map[string]bool
	logger    *slog.Logger
	mu        sync.Mutex
}

func NewFileSource(fs afero.Fs, dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		fs:        fs,
		dir:       dir,
		logger:    logger,
		interval:  500 * time.Millisecond,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating utterance dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextUtterance(ctx context.Context) (domain.Utterance, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		u, found, err := f.checkForNewFile()
		if err != nil {
			return domain.Utterance{}, err
		}
		if found {
			return u, nil
		}

		select {
		case <-ctx.Done():
			return domain.Utterance{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *FileSource) checkForNewFile() (domain.Utterance, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := afero.ReadDir(f.fs, f.dir)
	if err != nil {
		return domain.Utterance{}, false, fmt.Errorf("reading dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !isUtteranceFile(ext) {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := afero.ReadFile(f.fs, path)
		if err != nil {
			return domain.Utterance{}, false, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true
		// Without the rename the file is skipped only until restart.
		if err := f.fs.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking utterance file processed", "path", path, "error", err)
		}

		u, err := decodeUtterance(ext, data)
		if err != nil {
			return domain.Utterance{}, false, fmt.Errorf("decoding %s: %w", path, err)
		}
		return u, true, nil
	}

	return domain.Utterance{}, false, nil
}

func isUtteranceFile(ext string) bool {
	switch ext {
	case ".wav", ".mp3", ".m4a", ".webm", ".txt", ".json":
		return true
	default:
		return false
	}
}

func decodeUtterance(ext string, data []byte) (domain.Utterance, error) {
	u := domain.Utterance{ID: uuid.NewString()}

	switch ext {
	case ".txt":
		u.Text = strings.TrimSpace(string(data))
	case ".json":
		var req resultRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return domain.Utterance{}, err
		}
		u.Text = req.Text
		u.Properties = req.Properties
		if u.Properties == nil {
			u.Properties = map[string][]string{}
		}
	default:
		u.Audio = data
	}

	return u, nil
}
