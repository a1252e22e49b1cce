package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"alarm-light/config"
	"alarm-light/internal/application"
	"alarm-light/internal/infra"
	"alarm-light/internal/infra/audio"
	"alarm-light/internal/infra/gpio"
	"alarm-light/internal/infra/metrics"
	"alarm-light/internal/infra/openai"
	"alarm-light/internal/infra/pushover"
	"alarm-light/internal/infra/recognition"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	driver := flag.String("gpio-driver", "", "override gpio.driver (periph or memory)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *driver != "" {
		cfg.GPIO.Driver = *driver
		if err := cfg.Validate(); err != nil {
			slog.Error("invalid flags", "error", err)
			os.Exit(1)
		}
	}

	logger, closeLog := setupLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("alarm light exited", "error", err)
		closeLog()
		os.Exit(1)
	}
	closeLog()
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	var observer application.Observer = application.NoopObserver{}
	if cfg.Metrics.Addr != "" {
		m, err := metrics.NewObserver()
		if err != nil {
			return fmt.Errorf("creating metrics: %w", err)
		}
		observer = m
		stopMetrics := serveMetrics(cfg.Metrics.Addr, m.Handler(), logger)
		defer stopMetrics()
	}

	var notifier application.Notifier = &application.NoopNotifier{}
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	}

	engine := recognition.NewEngine(recognition.Config{
		Source:      createSource(cfg.Recognizer, logger),
		STT:         createSTT(cfg.OpenAI, logger),
		FS:          afero.NewOsFs(),
		GrammarPath: cfg.Recognizer.GrammarFile,
		Observer:    observer,
		Logger:      logger,
	})

	session := application.NewSession(application.SessionConfig{
		Engine:   engine,
		GPIO:     createGPIO(cfg.GPIO, logger),
		Pin:      cfg.GPIO.Pin,
		Observer: observer,
		Notifier: notifier,
		Logger:   logger,
	})

	logger.Info("starting alarm light",
		"gpio_driver", cfg.GPIO.Driver,
		"pin", cfg.GPIO.Pin,
		"source", cfg.Recognizer.Source,
		"grammar", cfg.Recognizer.GrammarFile,
	)

	startErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		err := session.Start(ctx)
		if errors.Is(err, application.ErrSessionUsed) {
			return infra.Permanent(err)
		}
		return err
	})
	if startErr != nil {
		if err := notifier.Notify(context.WithoutCancel(ctx), "Alarm light failed to start: "+startErr.Error()); err != nil {
			logger.Error("sending startup failure alert", "error", err)
		}
		// Stays in the non-ready state; nothing to tear down.
		return fmt.Errorf("starting session: %w", startErr)
	}

	logger.Info("listening for commands")
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Recognizer.StopTimeout)
	defer stopCancel()

	if err := session.Stop(stopCtx); err != nil {
		return fmt.Errorf("stopping session: %w", err)
	}
	logger.Info("alarm light stopped", "state", session.State())
	return nil
}

func createGPIO(cfg config.GPIOConfig, logger *slog.Logger) application.GPIOProvider {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory GPIO, the relay will not be driven")
		return gpio.NewMemoryProvider(logger)
	}
	return gpio.NewPeriphProvider(logger)
}

func createSource(cfg config.RecognizerConfig, logger *slog.Logger) application.UtteranceSource {
	switch cfg.Source {
	case config.SourceFile:
		return audio.NewFileSource(afero.NewOsFs(), cfg.FileDir, logger)
	case config.SourceMicrophone:
		return audio.NewMicrophoneSource(cfg.SampleRate, logger)
	default:
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func createSTT(cfg config.OpenAIConfig, logger *slog.Logger) application.SpeechToText {
	if cfg.APIKey == "" {
		logger.Warn("openai.api_key not set, audio utterances will be rejected")
		return &application.NoopSTT{}
	}
	if cfg.BaseURL != "" {
		return openai.NewWhisperClientWithURL(cfg.BaseURL, cfg.APIKey, cfg.Language)
	}
	return openai.NewWhisperClient(cfg.APIKey, cfg.Language)
}

func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}
}

func setupLogger(cfg config.LogConfig) (*slog.Logger, func()) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closeFn
}
