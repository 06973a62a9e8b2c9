// Package config loads application configuration for asyncseq binaries.
//
// Values are resolved from a config.yml file, an optional .env file and the
// process environment, in that order of increasing precedence. Environment
// variables are only considered when they carry the loader's prefix
// (SEQCAT_LOGGING_LEVEL maps to logging.level for the "seqcat" service).
//
// # Usage
//
//	var cfg Config
//	if err := config.LoadConfig("seqcat", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := config.Validate(&cfg); err != nil { ... }
package config
