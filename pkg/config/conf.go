package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mchmarny/biascheck/pkg/compare"
	"github.com/mchmarny/biascheck/pkg/score"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name inside the app directory.
	FileName = "config.yaml"

	dirMode  = 0700
	fileMode = 0600
)

var validate = validator.New()

// Config holds the scoring and pacing settings of the app.
// The API key is never part of it, see ResolveAPIKey.
type Config struct {
	Endpoint       string        `json:"endpoint" yaml:"endpoint" validate:"required,url"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" validate:"gt=0"`
	Delay          time.Duration `json:"delay" yaml:"delay" validate:"gte=0"`
	MaxRetries     uint64        `json:"max_retries" yaml:"max_retries" validate:"lte=10"`
	BackoffInitial time.Duration `json:"backoff_initial" yaml:"backoff_initial" validate:"gt=0"`
	BackoffMax     time.Duration `json:"backoff_max" yaml:"backoff_max" validate:"gtefield=BackoffInitial"`
	Languages      []string      `json:"languages,omitempty" yaml:"languages,omitempty" validate:"dive,len=2"`
	DoNotStore     bool          `json:"do_not_store" yaml:"do_not_store"`
}

// MarshalJSON writes durations the way the YAML file does ("10s").
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	return json.Marshal(struct {
		plain
		Timeout        string `json:"timeout"`
		Delay          string `json:"delay"`
		BackoffInitial string `json:"backoff_initial"`
		BackoffMax     string `json:"backoff_max"`
	}{
		plain:          plain(c),
		Timeout:        c.Timeout.String(),
		Delay:          c.Delay.String(),
		BackoffInitial: c.BackoffInitial.String(),
		BackoffMax:     c.BackoffMax.String(),
	})
}

// Default returns the config used when no file exists.
func Default() *Config {
	return &Config{
		Endpoint:       score.DefaultEndpoint,
		Timeout:        score.DefaultTimeout,
		Delay:          compare.DefaultDelay,
		MaxRetries:     compare.DefaultMaxRetries,
		BackoffInitial: compare.DefaultBackoffInitial,
		BackoffMax:     compare.DefaultBackoffMax,
		DoNotStore:     true,
	}
}

// Validate checks c against its field rules.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes c as YAML to path, creating the parent dir when needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("failed to create config dir for %s: %w", path, err)
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ReadOrCreate reads the config at path, writing the default one first when
// the file does not exist. Fields missing from the file keep their defaults.
func ReadOrCreate(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory in the user home.
// The created flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
