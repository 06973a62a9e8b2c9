package main

import (
	"github.com/kbukum/asyncseq/config"
	"github.com/kbukum/asyncseq/observability"
	"github.com/kbukum/asyncseq/server"
	"github.com/kbukum/asyncseq/version"
)

// envPrefix selects the environment variables read into Config.
const envPrefix = "SEQCAT"

// Config is the seqcat configuration. Values come from config.yml, .env and
// SEQCAT_* variables; command-line flags override them.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Skip  int    `yaml:"skip" mapstructure:"skip" validate:"gte=0"`
	Limit int    `yaml:"limit" mapstructure:"limit" validate:"gte=0"`
	Match string `yaml:"match" mapstructure:"match"`
	// Number prefixes printed lines with file:line.
	Number bool `yaml:"number" mapstructure:"number"`

	Serve   bool                 `yaml:"serve" mapstructure:"serve"`
	Server  server.Config        `yaml:"server" mapstructure:"server"`
	Tracing observability.Config `yaml:"tracing" mapstructure:"tracing"`
}

// loadConfig reads the configuration from path, or from the default
// locations when path is empty, and the SEQCAT_* environment.
func loadConfig(path string) (Config, error) {
	var cfg Config
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig("seqcat", &cfg, opts...); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "seqcat"
	}
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.ServiceVersion == "" {
		c.Tracing.ServiceVersion = c.Version
	}
	c.Tracing.ApplyDefaults()
}

// Validate checks struct tags and nested sections.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := config.Validate(c); err != nil {
		return err
	}
	return c.Server.Validate()
}
