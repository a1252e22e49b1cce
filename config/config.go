package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPIO       GPIOConfig       `yaml:"gpio"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

type GPIOConfig struct {
	Driver string `yaml:"driver"`
	Pin    int    `yaml:"pin"`
}

type RecognizerConfig struct {
	GrammarFile string        `yaml:"grammar_file"`
	Source      string        `yaml:"source"`
	HTTPAddr    string        `yaml:"http_addr"`
	FileDir     string        `yaml:"file_dir"`
	SampleRate  int           `yaml:"sample_rate"`
	AuthToken   string        `yaml:"auth_token"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Language string `yaml:"language"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

const (
	DriverPeriph = "periph"
	DriverMemory = "memory"

	SourceHTTP       = "http"
	SourceFile       = "file"
	SourceMicrophone = "microphone"
)

// DefaultPin is the relay's GPIO line on the reference board.
const DefaultPin = 5

var ErrInvalidConfig = errors.New("invalid config")

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Config{GPIO: GPIOConfig{Pin: -1}}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.GPIO.Driver == "" {
		c.GPIO.Driver = DriverPeriph
	}
	if c.GPIO.Pin == -1 {
		c.GPIO.Pin = DefaultPin
	}
	if c.Recognizer.GrammarFile == "" {
		c.Recognizer.GrammarFile = "grammar/alarm-light.yaml"
	}
	if c.Recognizer.Source == "" {
		c.Recognizer.Source = SourceHTTP
	}
	if c.Recognizer.HTTPAddr == "" {
		c.Recognizer.HTTPAddr = ":8080"
	}
	if c.Recognizer.FileDir == "" {
		c.Recognizer.FileDir = "./utterances"
	}
	if c.Recognizer.SampleRate == 0 {
		c.Recognizer.SampleRate = 16000
	}
	if c.Recognizer.StopTimeout == 0 {
		c.Recognizer.StopTimeout = 10 * time.Second
	}
	if c.OpenAI.Language == "" {
		c.OpenAI.Language = "en"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.GPIO.Driver {
	case DriverPeriph, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("gpio.driver %q: want %s or %s", c.GPIO.Driver, DriverPeriph, DriverMemory))
	}
	if c.GPIO.Pin < 0 {
		errs = append(errs, fmt.Errorf("gpio.pin %d: must not be negative", c.GPIO.Pin))
	}

	switch c.Recognizer.Source {
	case SourceHTTP, SourceFile, SourceMicrophone:
	default:
		errs = append(errs, fmt.Errorf("recognizer.source %q: want %s, %s or %s",
			c.Recognizer.Source, SourceHTTP, SourceFile, SourceMicrophone))
	}
	if c.Recognizer.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("recognizer.sample_rate %d: must be positive", c.Recognizer.SampleRate))
	}
	if c.Recognizer.StopTimeout < 0 {
		errs = append(errs, fmt.Errorf("recognizer.stop_timeout %s: must be positive", c.Recognizer.StopTimeout))
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
