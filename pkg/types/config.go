package types

import (
	"errors"
	"path/filepath"
)

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// DataDir holds the database file when DBPath is empty.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// DBPath overrides the database file location.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`

	// SeedFile is a JSONL export imported when the store is empty on attach.
	SeedFile string `json:"seed_file,omitempty" yaml:"seed_file,omitempty" mapstructure:"seed_file"`

	// BusyTimeoutMS is how long a connection waits on a locked database.
	// Zero selects DefaultBusyTimeoutMS.
	BusyTimeoutMS int `json:"busy_timeout_ms,omitempty" yaml:"busy_timeout_ms,omitempty" mapstructure:"busy_timeout_ms"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied when a Config leaves a field empty.
const (
	DefaultDBFile        = "recipes.db"
	DefaultBusyTimeoutMS = 5000
)

// Config validation errors.
var (
	ErrBackendEmpty       = errors.New("backend must not be empty")
	ErrBackendUnknown     = errors.New("unknown backend")
	ErrBusyTimeoutInvalid = errors.New("busy timeout must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.BusyTimeoutMS < 0 {
		return ErrBusyTimeoutInvalid
	}
	return nil
}

// DatabasePath returns DBPath if set, otherwise DefaultDBFile inside
// DataDir (the current directory when DataDir is empty).
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DefaultDBFile)
}

// BusyTimeout returns the effective busy timeout in milliseconds.
func (c Config) BusyTimeout() int {
	if c.BusyTimeoutMS == 0 {
		return DefaultBusyTimeoutMS
	}
	return c.BusyTimeoutMS
}
