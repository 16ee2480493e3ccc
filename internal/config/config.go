// Package config resolves runtime settings from flags, PLANTREE_* environment
// variables, an optional planningtree.yaml file and built-in defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendYAML   Backend = "yaml"
)

// EnvPrefix is prepended to every environment variable, e.g. PLANTREE_DB.
const EnvPrefix = "PLANTREE"

// Keys shared by viper, flags and the config file.
const (
	KeyConfig         = "config"
	KeyBackend        = "backend"
	KeyDB             = "db"
	KeyLogFile        = "log-file"
	KeyLogLevel       = "log-level"
	KeyResetOnCorrupt = "reset-on-corrupt"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Config is the resolved runtime configuration.
type Config struct {
	Backend        Backend
	DBPath         string
	LogFile        string
	LogLevel       slog.Level
	ResetOnCorrupt bool
	// ConfigFile is the file that was read, empty when none was found.
	ConfigFile string
}

// Loader resolves a Config. Each Loader owns its own viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with defaults and environment lookup set up.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBackend, string(BackendSQLite))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyResetOnCorrupt, false)
	return &Loader{v: v}
}

// BindFlags lets flags in fs override every other source. Flags that fs
// does not define are skipped.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	for _, key := range []string{KeyConfig, KeyBackend, KeyDB, KeyLogFile, KeyLogLevel, KeyResetOnCorrupt} {
		f := fs.Lookup(key)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag --%s: %w", key, err)
		}
	}
	return nil
}

// Load reads the optional config file and returns the resolved Config.
func (l *Loader) Load() (Config, error) {
	if err := l.readConfigFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Backend:        Backend(strings.ToLower(l.v.GetString(KeyBackend))),
		DBPath:         l.v.GetString(KeyDB),
		LogFile:        l.v.GetString(KeyLogFile),
		ResetOnCorrupt: l.v.GetBool(KeyResetOnCorrupt),
		ConfigFile:     l.v.ConfigFileUsed(),
	}

	switch cfg.Backend {
	case BackendSQLite, BackendYAML:
	default:
		return Config{}, fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, BackendSQLite, BackendYAML)
	}

	level, ok := logLevels[strings.ToLower(l.v.GetString(KeyLogLevel))]
	if !ok {
		return Config{}, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", l.v.GetString(KeyLogLevel))
	}
	cfg.LogLevel = level

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDataPath(cfg.Backend)
	}
	return cfg, nil
}

func (l *Loader) readConfigFile() error {
	if path := l.v.GetString(KeyConfig); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	l.v.SetConfigName("planningtree")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(".")
	if dir, err := DataDir(); err == nil {
		l.v.AddConfigPath(dir)
	}
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// DataDir returns ~/.planningtree.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".planningtree"), nil
}

// DefaultDataPath returns the default data file for backend, falling back
// to the working directory when no home directory is available.
func DefaultDataPath(backend Backend) string {
	name := "planningtree.db"
	if backend == BackendYAML {
		name = "plans.yaml"
	}
	dir, err := DataDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}
