// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

// Package config loads HoloTask server configuration.
//
// Values are layered: flag defaults, then an optional YAML file, then flags
// set explicitly on the command line. Secrets are read only from the
// environment (HOLOTASK_DATABASE_URL, HOLOTASK_TOKEN_SECRET).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"net"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/holotask/internal/auth"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// EnvPrefix is the prefix of every secret environment variable.
const EnvPrefix = "HOLOTASK_"

// Defaults.
const (
	DefaultHTTPAddr          = "127.0.0.1:3000"
	DefaultMetricsAddr       = "127.0.0.1:9100"
	DefaultLogFormat         = "json"
	DefaultLogLevel          = "info"
	DefaultStorage           = StorageMemory
	DefaultDBConnectAttempts = 5
	DefaultShutdownTimeout   = 10 * time.Second
)

// Config is the server configuration.
type Config struct {
	HTTPAddr    string   `koanf:"http-addr" json:"http-addr,omitempty" yaml:"http-addr" jsonschema:"description=API listen address (host:port)"`
	MetricsAddr string   `koanf:"metrics-addr" json:"metrics-addr,omitempty" yaml:"metrics-addr" jsonschema:"description=metrics and health listen address; empty disables"`
	LogFormat   string   `koanf:"log-format" json:"log-format,omitempty" yaml:"log-format" jsonschema:"enum=json,enum=text"`
	LogLevel    string   `koanf:"log-level" json:"log-level,omitempty" yaml:"log-level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Storage     string   `koanf:"storage" json:"storage,omitempty" yaml:"storage" jsonschema:"enum=memory,enum=postgres"`
	CORSOrigins []string `koanf:"cors-origins" json:"cors-origins,omitempty" yaml:"cors-origins" jsonschema:"description=allowed browser origins as glob patterns"`

	Argon2Time    uint32 `koanf:"argon2-time" json:"argon2-time,omitempty" yaml:"argon2-time" jsonschema:"minimum=1"`
	Argon2Memory  uint32 `koanf:"argon2-memory" json:"argon2-memory,omitempty" yaml:"argon2-memory" jsonschema:"minimum=8,description=KiB"`
	Argon2Threads uint8  `koanf:"argon2-threads" json:"argon2-threads,omitempty" yaml:"argon2-threads" jsonschema:"minimum=1"`

	AutoMigrate       bool          `koanf:"auto-migrate" json:"auto-migrate,omitempty" yaml:"auto-migrate"`
	DBConnectAttempts uint64        `koanf:"db-connect-attempts" json:"db-connect-attempts,omitempty" yaml:"db-connect-attempts" jsonschema:"minimum=1"`
	ShutdownTimeout   time.Duration `koanf:"shutdown-timeout" json:"shutdown-timeout,omitempty" yaml:"shutdown-timeout" jsonschema:"type=string,description=Go duration such as 10s"`

	Secrets Secrets `koanf:"-" json:"-" yaml:"-"`
}

// Secrets are configuration values that never come from files or flags.
type Secrets struct {
	DatabaseURL string `env:"DATABASE_URL"`
	TokenSecret string `env:"TOKEN_SECRET"`
}

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// File is an optional YAML config file path.
	File string
	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// RegisterFlags adds the server flags and their defaults to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("storage", DefaultStorage, "storage backend (memory or postgres)")
	fs.StringSlice("cors-origins", nil, "allowed CORS origin patterns (glob)")
	fs.Uint32("argon2-time", auth.DefaultArgon2Params.Time, "argon2id iterations")
	fs.Uint32("argon2-memory", auth.DefaultArgon2Params.Memory, "argon2id memory in KiB")
	fs.Uint8("argon2-threads", auth.DefaultArgon2Params.Threads, "argon2id parallelism")
	fs.Bool("auto-migrate", true, "apply pending migrations at startup (postgres storage)")
	fs.Uint64("db-connect-attempts", DefaultDBConnectAttempts, "database connection attempts at startup")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
}

// Load builds a Config from fs, the optional file and the environment.
// fs must have been populated by RegisterFlags. The result is not validated.
func Load(fs *pflag.FlagSet, opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", opts.File).
				Wrapf(err, "read config file")
		}
	}

	// Passing k makes unset flags contribute defaults only for keys the
	// file did not provide; explicitly set flags always win.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "read flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "decode config")
	}

	secrets, err := LoadSecrets(opts.Environment)
	if err != nil {
		return nil, err
	}
	cfg.Secrets = secrets

	return &cfg, nil
}

// LoadSecrets reads the HOLOTASK_ secret variables from environment, or
// from the process environment when environment is nil.
func LoadSecrets(environment map[string]string) (Secrets, error) {
	var secrets Secrets
	envOpts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		envOpts.Environment = environment
	}
	if err := env.ParseWithOptions(&secrets, envOpts); err != nil {
		return Secrets{}, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "read environment")
	}
	return secrets, nil
}

// Argon2 returns the configured password hashing parameters.
func (c *Config) Argon2() auth.Argon2Params {
	return auth.Argon2Params{
		Time:    c.Argon2Time,
		Memory:  c.Argon2Memory,
		Threads: c.Argon2Threads,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validateAddr("http-addr", c.HTTPAddr, true); err != nil {
		return err
	}
	if err := validateAddr("metrics-addr", c.MetricsAddr, false); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log-format", c.LogFormat, "log-format must be 'json' or 'text'")
	}
	if !slices.Contains([]string{StorageMemory, StoragePostgres}, c.Storage) {
		return invalid("storage", c.Storage, "storage must be 'memory' or 'postgres'")
	}
	if c.Storage == StoragePostgres && c.Secrets.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("%sDATABASE_URL is required for postgres storage", EnvPrefix)
	}
	for _, pattern := range c.CORSOrigins {
		if _, err := glob.Compile(pattern); err != nil {
			return oops.Code("CONFIG_INVALID").
				With("field", "cors-origins").
				With("pattern", pattern).
				Wrapf(err, "invalid CORS origin pattern")
		}
	}
	if err := c.Argon2().Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("field", "argon2").
			With("cause", err.Error()).
			Errorf("invalid argon2 parameters")
	}
	if c.DBConnectAttempts < 1 {
		return invalid("db-connect-attempts", c.DBConnectAttempts, "db-connect-attempts must be at least 1")
	}
	if c.ShutdownTimeout <= 0 {
		return invalid("shutdown-timeout", c.ShutdownTimeout, "shutdown-timeout must be positive")
	}
	if c.Secrets.TokenSecret != "" && len(c.Secrets.TokenSecret) < auth.MinTokenSecretLength {
		return oops.Code("CONFIG_INVALID").
			With("min_length", auth.MinTokenSecretLength).
			Errorf("%sTOKEN_SECRET must be at least %d bytes", EnvPrefix, auth.MinTokenSecretLength)
	}
	if c.Secrets.TokenSecret == "" && c.Storage == StoragePostgres {
		return oops.Code("CONFIG_INVALID").
			Errorf("%sTOKEN_SECRET is required for postgres storage", EnvPrefix)
	}
	return nil
}

// EnsureTokenSecret fills in a random token secret when none is configured.
// It reports whether a secret was generated. Tokens signed with a generated
// secret do not survive a restart, which only suits memory storage.
func (c *Config) EnsureTokenSecret() (bool, error) {
	if c.Secrets.TokenSecret != "" {
		return false, nil
	}
	buf := make([]byte, auth.MinTokenSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return false, oops.Code("CONFIG_SECRET_FAILED").Wrapf(err, "generate token secret")
	}
	c.Secrets.TokenSecret = hex.EncodeToString(buf)
	return true, nil
}

func validateAddr(field, addr string, required bool) error {
	if addr == "" {
		if required {
			return invalid(field, addr, field+" is required")
		}
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("field", field).
			With("value", addr).
			Wrapf(err, "%s must be host:port", field)
	}
	return nil
}

func invalid(field string, value any, msg string) error {
	return oops.Code("CONFIG_INVALID").
		With("field", field).
		With("value", value).
		Errorf("%s", msg)
}
