package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mchmarny/biascheck/pkg/config"
	"github.com/mchmarny/biascheck/pkg/data"
	"github.com/mchmarny/biascheck/pkg/logging"
	"github.com/mchmarny/biascheck/pkg/net"
	urfave "github.com/urfave/cli/v3"
)

const (
	appName      = "biascheck"
	appConfigKey = "app-config"
	envPrefix    = "BIASCHECK_"
	dotEnvFile   = ".env"
)

const (
	debugFlag      = "debug"
	configFlag     = "config"
	dbFilePathFlag = "db"
	formatFlag     = "format"
	endpointFlag   = "endpoint"
	timeoutFlag    = "timeout"
	delayFlag      = "delay"
	maxRetriesFlag = "max-retries"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")
	net.UserAgent = fmt.Sprintf("%s/%s", appName, version)

	if err := loadDotEnv(dotEnvFile); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}

	app := newApp(os.Stdout)
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	ConfigPath string
	DBPath     string
	Debug      bool
	Format     string
	Config     *config.Config

	db *sql.DB
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

// getDB opens the history database on first use.
func (a *appConfig) getDB() (*sql.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := data.Init(a.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	a.db = db
	return db, nil
}

func newApp(w io.Writer) *urfave.Command {
	return &urfave.Command{
		Name:            appName,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Compares Perspective API toxicity scores across variants of the same phrase",
		HideHelpCommand: true,
		Writer:          w,
		Metadata:        map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    debugFlag,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: urfave.EnvVars(envPrefix + "DEBUG"),
			},
			&urfave.StringFlag{
				Name:    configFlag,
				Usage:   fmt.Sprintf("Path to the config file (optional, defaults to $HOME/.%s/%s)", appName, config.FileName),
				Sources: urfave.EnvVars(envPrefix + "CONFIG"),
			},
			&urfave.StringFlag{
				Name:    dbFilePathFlag,
				Usage:   fmt.Sprintf("Path to the Sqlite database file (optional, defaults to $HOME/.%s/%s)", appName, data.DataFileName),
				Sources: urfave.EnvVars(envPrefix + "DB"),
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: fmt.Sprintf("Output format [%s]", strings.Join(formats, ", ")),
				Value: formatTable,
			},
			&urfave.StringFlag{
				Name:    endpointFlag,
				Usage:   "Overrides the scoring endpoint from config",
				Sources: urfave.EnvVars(envPrefix + "ENDPOINT"),
			},
			&urfave.DurationFlag{
				Name:    timeoutFlag,
				Usage:   "Overrides the per-call timeout from config",
				Sources: urfave.EnvVars(envPrefix + "TIMEOUT"),
			},
			&urfave.DurationFlag{
				Name:    delayFlag,
				Usage:   "Overrides the minimum delay between calls from config",
				Sources: urfave.EnvVars(envPrefix + "DELAY"),
			},
			&urfave.IntFlag{
				Name:    maxRetriesFlag,
				Usage:   "Overrides the retry count for transient failures from config",
				Sources: urfave.EnvVars(envPrefix + "MAX_RETRIES"),
			},
		},
		Commands: []*urfave.Command{
			newCompareCmd(),
			newScoreCmd(),
			newDescribeCmd(),
			newHistoryCmd(),
			newConfigCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			debug := cmd.Bool(debugFlag)
			if debug {
				logging.SetDefaultCLILogger("debug")
			}

			format, err := parseFormat(cmd.String(formatFlag))
			if err != nil {
				return ctx, err
			}

			var home string
			configPath := cmd.String(configFlag)
			dbPath := cmd.String(dbFilePathFlag)
			if configPath == "" || dbPath == "" {
				home = getHomeDir()
			}
			if configPath == "" {
				configPath = filepath.Join(home, config.FileName)
			}
			if dbPath == "" {
				dbPath = filepath.Join(home, data.DataFileName)
			}

			cfg, err := config.ReadOrCreate(configPath)
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}
			if err := applyOverrides(cmd, cfg); err != nil {
				return ctx, err
			}

			cmd.Root().Metadata[appConfigKey] = &appConfig{
				ConfigPath: configPath,
				DBPath:     dbPath,
				Debug:      debug,
				Format:     format,
				Config:     cfg,
			}
			return ctx, nil
		},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.db != nil {
				cfg.db.Close()
			}
			return nil
		},
	}
}

// applyOverrides lays flag and environment values over the file config.
func applyOverrides(cmd *urfave.Command, cfg *config.Config) error {
	if cmd.IsSet(endpointFlag) {
		cfg.Endpoint = cmd.String(endpointFlag)
	}
	if cmd.IsSet(timeoutFlag) {
		cfg.Timeout = cmd.Duration(timeoutFlag)
	}
	if cmd.IsSet(delayFlag) {
		cfg.Delay = cmd.Duration(delayFlag)
	}
	if cmd.IsSet(maxRetriesFlag) {
		n := int(cmd.Int(maxRetriesFlag))
		if n < 0 {
			return fmt.Errorf("invalid %s: %d", maxRetriesFlag, n)
		}
		cfg.MaxRetries = uint64(n)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("applying overrides: %w", err)
	}
	return nil
}

// loadDotEnv loads path into the environment when it exists.
// Variables already set are left alone.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	slog.Debug("env file loaded", "path", path)
	return nil
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created dir", "path", dir)
	}
	return dir
}
