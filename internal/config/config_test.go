package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 99, cfg.Session.MaxFaces)
	assert.Equal(t, 20.0, cfg.Render.BlurSigma)
	assert.Equal(t, 0.35, cfg.Render.Opacity)
	assert.Equal(t, 24, cfg.Render.BorderSize)
	assert.Equal(t, BackendRekognition, cfg.Detector.Backend)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Session.MaxFaces = 10
	cfg.Detector.Backend = BackendOllama
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"render": {"opacity": 0.5}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Render.Opacity)
	assert.Equal(t, 20.0, cfg.Render.BlurSigma)
	assert.Equal(t, 99, cfg.Session.MaxFaces)
}

func TestLoadErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("NOFACE_SESSION_TMP_FOLDER", "/var/tmp/bot")
	t.Setenv("NOFACE_SESSION_MAX_FACES", "12")
	t.Setenv("NOFACE_DETECTOR_BACKEND", "llamacpp")
	t.Setenv("NOFACE_LOG_MODE", "debug")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "/var/tmp/bot", cfg.Session.TmpFolder)
	assert.Equal(t, 12, cfg.Session.MaxFaces)
	assert.Equal(t, BackendLlamaCpp, cfg.Detector.Backend)
	assert.Equal(t, "debug", cfg.Log.Mode)
	assert.Equal(t, 0.35, cfg.Render.Opacity)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	t.Setenv("NOFACE_SESSION_MAX_FACES", "many")

	assert.Error(t, Default().ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "empty tmp folder", mutate: func(c *Config) { c.Session.TmpFolder = "" }},
		{name: "max faces too small", mutate: func(c *Config) { c.Session.MaxFaces = 1 }},
		{name: "negative retries", mutate: func(c *Config) { c.Session.DetectRetries = -1 }},
		{name: "zero idle timeout", mutate: func(c *Config) { c.Session.IdleTimeoutSeconds = 0 }},
		{name: "zero blur", mutate: func(c *Config) { c.Render.BlurSigma = 0 }},
		{name: "opacity over one", mutate: func(c *Config) { c.Render.Opacity = 1.5 }},
		{name: "label scale zero", mutate: func(c *Config) { c.Render.LabelScale = 0 }},
		{name: "negative border", mutate: func(c *Config) { c.Render.BorderSize = -1 }},
		{name: "quality out of range", mutate: func(c *Config) { c.Render.Quality = 101 }},
		{name: "unknown backend", mutate: func(c *Config) { c.Detector.Backend = "opencv" }},
		{name: "rekognition without region", mutate: func(c *Config) { c.Detector.Region = "" }},
		{name: "ollama without model", mutate: func(c *Config) {
			c.Detector.Backend = BackendOllama
			c.Detector.Model = ""
		}},
		{name: "zero send size", mutate: func(c *Config) { c.Detector.SendSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	s := Default().Session

	assert.Equal(t, 500*time.Millisecond, s.RetryDelay())
	assert.Equal(t, 15*time.Minute, s.IdleTimeout())
	assert.Equal(t, 15*time.Minute, s.CleanupInterval())
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
