// Package config loads cartsync settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default).
//  2. An optional YAML file.
//  3. Environment variables, with values from .env files used when the
//     process environment does not set them.
//
// The merged result is validated against an embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Config is the full cartsync configuration.
type Config struct {
	// Tenant prefixes local storage keys ("<tenant>:cart").
	Tenant string `yaml:"tenant" json:"tenant"`

	// Locale is a BCP 47 tag used for wishlist name collation.
	Locale string `yaml:"locale" json:"locale"`

	Local  LocalConfig  `yaml:"local" json:"local"`
	Remote RemoteConfig `yaml:"remote" json:"remote"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// LocalConfig configures the local snapshot store.
type LocalConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path" json:"path"`

	// Disabled runs with no local persistence (state lives in memory only).
	Disabled bool `yaml:"disabled" json:"disabled"`
}

// RemoteConfig configures the remote collection backend.
type RemoteConfig struct {
	// Backend is one of none, memory, firestore, postgres, http.
	Backend string `yaml:"backend" json:"backend"`

	// Timeout bounds each remote call, as a Go duration string.
	Timeout string `yaml:"timeout" json:"timeout"`

	// Background pushes on a worker goroutine instead of inline.
	Background bool `yaml:"background" json:"background"`

	Firestore FirestoreConfig `yaml:"firestore" json:"firestore"`
	Postgres  PostgresConfig  `yaml:"postgres" json:"postgres"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
}

// FirestoreConfig selects the Firestore project and collection.
type FirestoreConfig struct {
	Project     string `yaml:"project" json:"project"`
	Credentials string `yaml:"credentials" json:"credentials"`
	Collection  string `yaml:"collection" json:"collection"`
}

// PostgresConfig holds the PostgreSQL connection string.
type PostgresConfig struct {
	DSN string `yaml:"dsn" json:"dsn"`
}

// HTTPConfig points at a record API.
type HTTPConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Backend names.
const (
	BackendNone      = "none"
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendHTTP      = "http"
)

// Default returns the built-in configuration: a local SQLite file and no
// remote backend.
func Default() Config {
	return Config{
		Tenant: "default",
		Locale: "und",
		Local:  LocalConfig{Path: "cartsync.db"},
		Remote: RemoteConfig{
			Backend: BackendNone,
			Timeout: "5s",
			Firestore: FirestoreConfig{
				Collection: "collection_records",
			},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// TimeoutDuration returns Timeout parsed. Call after Validate.
func (r RemoteConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(r.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// SlogLevel maps Level onto slog levels.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds a configuration from defaults, the YAML file at path (skipped
// when path is empty), the process environment and envFiles, then
// validates it. Missing env files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, lookupWith(dotenv)); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("read env file %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out, nil
}

// lookupWith prefers the process environment over dotenv values.
func lookupWith(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	boolean := func(dst *bool, key string) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str(&cfg.Tenant, "CARTSYNC_TENANT")
	str(&cfg.Locale, "CARTSYNC_LOCALE")
	str(&cfg.Local.Path, "CARTSYNC_LOCAL_PATH")
	str(&cfg.Remote.Backend, "CARTSYNC_REMOTE_BACKEND")
	str(&cfg.Remote.Timeout, "CARTSYNC_REMOTE_TIMEOUT")
	str(&cfg.Remote.Firestore.Project, "CARTSYNC_FIRESTORE_PROJECT", "GOOGLE_CLOUD_PROJECT")
	str(&cfg.Remote.Firestore.Credentials, "CARTSYNC_FIRESTORE_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS")
	str(&cfg.Remote.Firestore.Collection, "CARTSYNC_FIRESTORE_COLLECTION")
	str(&cfg.Remote.Postgres.DSN, "CARTSYNC_POSTGRES_DSN", "DATABASE_URL")
	str(&cfg.Remote.HTTP.BaseURL, "CARTSYNC_HTTP_BASE_URL")
	str(&cfg.Log.Level, "CARTSYNC_LOG_LEVEL")
	str(&cfg.Log.Format, "CARTSYNC_LOG_FORMAT")

	if err := boolean(&cfg.Local.Disabled, "CARTSYNC_LOCAL_DISABLED"); err != nil {
		return err
	}
	return boolean(&cfg.Remote.Background, "CARTSYNC_REMOTE_BACKGROUND")
}

// Validate checks cfg against the embedded schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Details: cueerrors.Details(err, nil)}
	}
	return nil
}

// ValidationError reports a configuration that does not satisfy the schema.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.TrimSpace(e.Details)
}
