package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"alarm-light/internal/application"
	"alarm-light/internal/domain"
)

var ErrSourceClosed = application.ErrSourceClosed

const (
	maxAudioBytes  = 10 << 20
	maxTextBytes   = 1 << 10
	maxResultBytes = 4 << 10
)

// HTTPSource accepts utterances over HTTP:
//
//	POST /audio   WAV body, transcribed by the engine
//	POST /text    plain-text utterance, matched against the grammar
//	POST /result  JSON {"text": ..., "properties": {...}} from an external recognizer
//	GET  /health
type HTTPSource struct {
	addr        string
	server      *http.Server
	queue       chan domain.Utterance
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	closed      bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		queue:       make(chan domain.Utterance, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute),
		authToken:   authToken,
	}
	h.mux.HandleFunc("POST /audio", h.protect(h.handleAudio))
	h.mux.HandleFunc("POST /text", h.protect(h.handleText))
	h.mux.HandleFunc("POST /result", h.protect(h.handleResult))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.server = &http.Server{
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	server := h.server
	go func() {
		h.logger.Info("HTTP utterance server starting", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

// Stop shuts the server down and closes the queue. Utterances still queued
// are dropped.
func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	server := h.server
	h.running = false
	h.mu.Unlock()

	var stopErr error
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := server.Close(); err != nil {
				stopErr = fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeOnce.Do(func() {
		h.closed = true
		close(h.queue)
	})
	return stopErr
}

func (h *HTTPSource) NextUtterance(ctx context.Context) (domain.Utterance, error) {
	select {
	case <-ctx.Done():
		return domain.Utterance{}, ctx.Err()
	case u, ok := <-h.queue:
		if !ok {
			return domain.Utterance{}, ErrSourceClosed
		}
		return u, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// Inject queues an utterance directly. It reports false when the queue is
// full or the source stopped.
func (h *HTTPSource) Inject(u domain.Utterance) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	select {
	case h.queue <- u:
		return true
	default:
		return false
	}
}

func (h *HTTPSource) protect(next http.HandlerFunc) http.HandlerFunc {
	return h.rateLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != h.authToken {
				h.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	})
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxAudioBytes)
	if !ok {
		return
	}

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	u := domain.Utterance{ID: uuid.NewString(), Audio: data}
	if !h.Inject(u) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received audio via HTTP", "event_id", u.ID, "bytes", len(data))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "id": u.ID, "bytes": len(data)})
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxTextBytes)
	if !ok {
		return
	}

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	u := domain.Utterance{ID: uuid.NewString(), Text: text}
	if !h.Inject(u) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received text utterance via HTTP", "event_id", u.ID, "text", text)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "id": u.ID, "text": text})
}

type resultRequest struct {
	Text       string              `json:"text"`
	Properties map[string][]string `json:"properties"`
}

func (h *HTTPSource) handleResult(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r, maxResultBytes)
	if !ok {
		return
	}

	var req resultRequest
	if err := json.Unmarshal(data, &req); err != nil {
		http.Error(w, "invalid result JSON", http.StatusBadRequest)
		return
	}
	if req.Properties == nil {
		req.Properties = map[string][]string{}
	}

	u := domain.Utterance{ID: uuid.NewString(), Text: req.Text, Properties: req.Properties}
	if !h.Inject(u) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("received recognition result via HTTP", "event_id", u.ID, "count", len(req.Properties))
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "id": u.ID})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.queue)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{"status": status, "running": running, "queue_size": queueSize})
}

// readBody reads at most limit bytes. Larger bodies are refused with 413
// rather than truncated.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	defer r.Body.Close()

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
