package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. NOFACE_SESSION_TMP_FOLDER
const EnvPrefix = "NOFACE"

// Detector backends
const (
	BackendRekognition = "rekognition"
	BackendOllama      = "ollama"
	BackendLlamaCpp    = "llamacpp"
)

// Config holds the application configuration
type Config struct {
	Session  SessionConfig  `json:"session" envconfig:"SESSION"`
	Render   RenderConfig   `json:"render" envconfig:"RENDER"`
	Detector DetectorConfig `json:"detector" envconfig:"DETECTOR"`
	Log      LogConfig      `json:"log" envconfig:"LOG"`
}

// SessionConfig holds configuration for the conversation state machine
type SessionConfig struct {
	TmpFolder              string `json:"tmp_folder" envconfig:"TMP_FOLDER"`
	MaxFaces               int    `json:"max_faces" envconfig:"MAX_FACES"`
	DetectRetries          int    `json:"detect_retries" envconfig:"DETECT_RETRIES"`
	RetryDelayMS           int    `json:"retry_delay_ms" envconfig:"RETRY_DELAY_MS"`
	IdleTimeoutSeconds     int    `json:"idle_timeout_seconds" envconfig:"IDLE_TIMEOUT_SECONDS"`
	CleanupIntervalSeconds int    `json:"cleanup_interval_seconds" envconfig:"CLEANUP_INTERVAL_SECONDS"`
}

// RenderConfig holds configuration for reference and redaction images
type RenderConfig struct {
	BlurSigma  float64 `json:"blur_sigma" envconfig:"BLUR_SIGMA"`
	Opacity    float64 `json:"opacity" envconfig:"OPACITY"`
	LabelScale float64 `json:"label_scale" envconfig:"LABEL_SCALE"`
	FontFile   string  `json:"font_file" envconfig:"FONT_FILE"`
	BorderSize int     `json:"border_size" envconfig:"BORDER_SIZE"`
	FooterText string  `json:"footer_text" envconfig:"FOOTER_TEXT"`
	Quality    int     `json:"quality" envconfig:"QUALITY"`
}

// DetectorConfig selects and configures the face detection backend
type DetectorConfig struct {
	Backend     string `json:"backend" envconfig:"BACKEND"`
	Region      string `json:"region" envconfig:"REGION"`
	URL         string `json:"url" envconfig:"URL"`
	Model       string `json:"model" envconfig:"MODEL"`
	SendSize    int    `json:"send_size" envconfig:"SEND_SIZE"`
	SendQuality int    `json:"send_quality" envconfig:"SEND_QUALITY"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode string `json:"mode" envconfig:"MODE"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			TmpFolder:              filepath.Join(os.TempDir(), "noface"),
			MaxFaces:               99,
			DetectRetries:          2,
			RetryDelayMS:           500,
			IdleTimeoutSeconds:     900,
			CleanupIntervalSeconds: 900,
		},
		Render: RenderConfig{
			BlurSigma:  20,
			Opacity:    0.35,
			LabelScale: 0.3,
			FontFile:   "",
			BorderSize: 24,
			FooterText: "noface bot",
			Quality:    90,
		},
		Detector: DetectorConfig{
			Backend:     BackendRekognition,
			Region:      "us-east-1",
			URL:         "http://localhost:11434",
			Model:       "llava:13b",
			SendSize:    1920,
			SendQuality: 90,
		},
		Log: LogConfig{
			Mode: "release",
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
// Keys missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays NOFACE_* environment variables onto c.
// Unset variables leave the current values alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Session.TmpFolder == "" {
		return fmt.Errorf("session.tmp_folder cannot be empty")
	}

	if c.Session.MaxFaces < 2 {
		return fmt.Errorf("session.max_faces must be at least 2")
	}

	if c.Session.DetectRetries < 0 {
		return fmt.Errorf("session.detect_retries cannot be negative")
	}

	if c.Session.RetryDelayMS < 0 {
		return fmt.Errorf("session.retry_delay_ms cannot be negative")
	}

	if c.Session.IdleTimeoutSeconds < 1 || c.Session.CleanupIntervalSeconds < 1 {
		return fmt.Errorf("session timeouts must be positive")
	}

	if c.Render.BlurSigma <= 0 {
		return fmt.Errorf("render.blur_sigma must be positive")
	}

	if c.Render.Opacity < 0 || c.Render.Opacity > 1 {
		return fmt.Errorf("render.opacity must be between 0 and 1")
	}

	if c.Render.LabelScale <= 0 || c.Render.LabelScale > 1 {
		return fmt.Errorf("render.label_scale must be between 0 and 1")
	}

	if c.Render.BorderSize < 0 {
		return fmt.Errorf("render.border_size cannot be negative")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	switch c.Detector.Backend {
	case BackendRekognition:
		if c.Detector.Region == "" {
			return fmt.Errorf("detector.region is required for rekognition")
		}
	case BackendOllama, BackendLlamaCpp:
		if c.Detector.URL == "" || c.Detector.Model == "" {
			return fmt.Errorf("detector.url and detector.model are required for %s", c.Detector.Backend)
		}
	default:
		return fmt.Errorf("unknown detector.backend %q", c.Detector.Backend)
	}

	if c.Detector.SendSize < 1 {
		return fmt.Errorf("detector.send_size must be positive")
	}

	if c.Detector.SendQuality < 1 || c.Detector.SendQuality > 100 {
		return fmt.Errorf("detector.send_quality must be between 1 and 100")
	}

	return nil
}

// RetryDelay returns the base backoff between detector attempts
func (s SessionConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMS) * time.Millisecond
}

// IdleTimeout returns how long an untouched session and its folder survive
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// CleanupInterval returns the janitor period
func (s SessionConfig) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalSeconds) * time.Second
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "noface", "config.json")
}
