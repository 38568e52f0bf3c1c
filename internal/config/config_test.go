package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, DefaultSampleInterval, cfg.SampleInterval)
	assert.Equal(t, DefaultProbeInterval, cfg.ProbeInterval)
	assert.Equal(t, DefaultDashboardURL, cfg.DashboardURL)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "SAMPLE_INTERVAL", "10s")
	setEnv(t, "PROBE_INTERVAL", "500ms")
	setEnv(t, "HISTORY_LIMIT", "25")
	setEnv(t, "STUDENT_ID", "student_042")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.SampleInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.ProbeInterval)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.Equal(t, "student_042", cfg.StudentID)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				HistoryLimit:   100,
				SampleInterval: 5 * time.Second,
				ProbeInterval:  2 * time.Second,
			},
			wantErr: "",
		},
		{
			name: "zero history limit",
			config: Config{
				HistoryLimit:   0,
				SampleInterval: 5 * time.Second,
				ProbeInterval:  2 * time.Second,
			},
			wantErr: "HISTORY_LIMIT",
		},
		{
			name: "negative sample interval",
			config: Config{
				HistoryLimit:   100,
				SampleInterval: -time.Second,
				ProbeInterval:  2 * time.Second,
			},
			wantErr: "SAMPLE_INTERVAL",
		},
		{
			name: "zero probe interval",
			config: Config{
				HistoryLimit:   100,
				SampleInterval: 5 * time.Second,
				ProbeInterval:  0,
			},
			wantErr: "PROBE_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt64(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, int64(42), getEnvInt64("TEST_INT", 0))
	assert.Equal(t, int64(99), getEnvInt64("NONEXISTENT_VAR", 99))
	assert.Equal(t, int64(99), getEnvInt64("TEST_INVALID", 99)) // Falls back on parse error
}

func TestGetEnvDuration(t *testing.T) {
	setEnv(t, "TEST_DUR", "3s")
	setEnv(t, "TEST_BAD_DUR", "soon")

	assert.Equal(t, 3*time.Second, getEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("NONEXISTENT_VAR", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("TEST_BAD_DUR", time.Second))
}
