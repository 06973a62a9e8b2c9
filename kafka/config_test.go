package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/asyncseq/errors"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "snappy", cfg.Compression)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, "1s", cfg.BatchTimeout)
	assert.Equal(t, -1, cfg.RequiredAcks)
	assert.Equal(t, "30s", cfg.SessionTimeout)
	assert.Equal(t, "6s", cfg.MetadataTTL)
	assert.Empty(t, cfg.SASLMechanism)
}

func TestConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Brokers:     []string{"b1:9092", "b2:9092"},
		Compression: "zstd",
		BatchSize:   10,
		EnableSASL:  true,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Brokers)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, "PLAIN", cfg.SASLMechanism)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.Brokers = nil }, false},
		{"no brokers", func(c *Config) { c.Brokers = nil }, true},
		{"bad duration", func(c *Config) { c.DialTimeout = "soon" }, true},
		{"unsupported sasl", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "GSSAPI"; c.Username = "u" }, true},
		{"sasl without username", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "SCRAM-SHA-256" }, true},
		{"sasl ok", func(c *Config) { c.EnableSASL = true; c.SASLMechanism = "SCRAM-SHA-512"; c.Username = "u" }, false},
		{"zero retries", func(c *Config) { c.Retries = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Enabled: true}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, ParseDuration("1.5s"))
	assert.Zero(t, ParseDuration(""))
	assert.Zero(t, ParseDuration("nope"))
}
