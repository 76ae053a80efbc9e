// Package config loads client and development server settings.
//
// Sources are applied in order, later ones win: built-in defaults, the
// YAML file given by -config (or NEWSCOIN_CONFIG), a .env file, process
// environment variables and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/newscoin/newscoin/internal/validation"
)

const (
	envPrefix = "NEWSCOIN_"
	// EnvConfigPath points at the YAML file when -config is not given
	EnvConfigPath = envPrefix + "CONFIG"
	// EnvDotenvPath overrides the location of the .env file
	EnvDotenvPath = envPrefix + "ENV_FILE"
)

// Log configures the slog handler
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// loadFile decodes a YAML file over cfg. Empty path is a no-op.
func loadFile(path string, cfg any) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// loadDotenv loads the .env file into the process environment without
// overriding variables that are already set. A missing file is ignored.
func loadDotenv() error {
	path := os.Getenv(EnvDotenvPath)
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// envLoader applies NEWSCOIN_* variables and remembers the first parse error
type envLoader struct {
	err    error
	prefix string
}

func (e *envLoader) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(e.prefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envLoader) string(dst *string, name string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envLoader) duration(dst *time.Duration, name string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = d
}

func (e *envLoader) bool(dst *bool, name string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = b
}

func (e *envLoader) int64(dst *int64, name string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(name, err)
		return
	}
	*dst = n
}

func (e *envLoader) fail(name string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s%s: %w", e.prefix, name, err)
	}
}

func validate(cfg any) error {
	if err := validation.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
