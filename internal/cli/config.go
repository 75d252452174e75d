package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/recipes/internal/paths"
	"github.com/mesh-intelligence/recipes/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "RECIPES"
	envFile   = ".env"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyDBPath        = "db_path"
	cfgKeySeedFile      = "seed_file"
	cfgKeyLogLevel      = "log_level"
	cfgKeyBusyTimeoutMS = "busy_timeout_ms"

	defaultLogLevel = "info"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# recipes configuration

# Storage backend.
backend: sqlite

# Directory holding recipes.db (overridden by --data-dir).
# data_dir:

# Database file (overridden by --db and RECIPES_DB_PATH).
# db_path:

# JSONL export imported into an empty store on startup.
# seed_file:

# debug, info, warn or error.
log_level: info

# busy_timeout_ms: 5000
`

// envKeys are read from RECIPES_<KEY>. data_dir is absent: its environment
// override ranks below config.yaml and is applied by paths.ResolveDataDir.
var envKeys = []string{cfgKeyBackend, cfgKeyDBPath, cfgKeySeedFile, cfgKeyLogLevel, cfgKeyBusyTimeoutMS}

// loadConfig reads config.yaml from the resolved config directory using
// Viper, layered under RECIPES_* environment variables and an optional .env
// file in the working directory. It creates the config directory and a
// default config.yaml on first run.
func loadConfig(configDirFlag string) (*viper.Viper, error) {
	configDir, err := paths.ResolveConfigDir(configDirFlag)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: read config: %w", types.ErrValidation, err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// loadDotEnv exports the variables of path without overriding ones already
// set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("%w: load %s: %w", types.ErrValidation, path, err)
}

// storeConfig assembles the backend configuration. The database file is
// --db, then RECIPES_DB_PATH, then db_path; failing those it is recipes.db
// inside the resolved data directory.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:       a.v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		DBPath:        a.v.GetString(cfgKeyDBPath),
		SeedFile:      a.v.GetString(cfgKeySeedFile),
		BusyTimeoutMS: a.v.GetInt(cfgKeyBusyTimeoutMS),
	}
	if a.flags.dbPath != "" {
		cfg.DBPath = a.flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: config: %w", types.ErrValidation, err)
	}
	return cfg, nil
}

// logLevel returns --log-level, falling back to RECIPES_LOG_LEVEL and
// log_level.
func (a *app) logLevel() string {
	if a.flags.logLevel != "" {
		return a.flags.logLevel
	}
	if a.v != nil {
		return a.v.GetString(cfgKeyLogLevel)
	}
	return defaultLogLevel
}
