package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mchmarny/biascheck/pkg/config"
	urfave "github.com/urfave/cli/v3"
)

// effectiveConfig is the config as the scoring commands will use it.
type effectiveConfig struct {
	ConfigPath string         `json:"config_path" yaml:"config_path"`
	DBPath     string         `json:"db_path" yaml:"db_path"`
	APIKey     string         `json:"api_key" yaml:"api_key"`
	Config     *config.Config `json:"config" yaml:"config"`
}

func newConfigCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "config",
		Usage:  "Prints the effective configuration, creating the default file if missing",
		Action: cmdConfig,
	}
}

func cmdConfig(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	key := "(not set)"
	if k, err := config.ResolveAPIKey(); err == nil {
		key = config.Redact(k)
	}

	ec := &effectiveConfig{
		ConfigPath: cfg.ConfigPath,
		DBPath:     cfg.DBPath,
		APIKey:     key,
		Config:     cfg.Config,
	}

	w := writer(cmd)
	if cfg.Format != formatTable {
		return encode(w, cfg.Format, ec)
	}

	c := ec.Config
	table := newTable(w, "Setting", "Value")
	table.AppendBulk([][]string{
		{"config file", ec.ConfigPath},
		{"database", ec.DBPath},
		{"api key", ec.APIKey},
		{"endpoint", c.Endpoint},
		{"timeout", c.Timeout.String()},
		{"delay", c.Delay.String()},
		{"max retries", fmt.Sprintf("%d", c.MaxRetries)},
		{"backoff initial", c.BackoffInitial.String()},
		{"backoff max", c.BackoffMax.String()},
		{"languages", strings.Join(c.Languages, ", ")},
		{"do not store", fmt.Sprintf("%t", c.DoNotStore)},
	})
	table.Render()
	return nil
}
