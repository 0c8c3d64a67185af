package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/logger"
)

const (
	envKey = "env"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// env holds the connections and services shared by all commands.
type env struct {
	db       *sql.DB
	redis    *goredis.Client
	logger   *zap.Logger
	services *app.Services
}

func (e *env) close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.logger.Sync()
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  "carpoolctl",
		Version:               fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:                 "Operate the carpool matching service from the command line",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			debugFlag,
			formatFlag,
		},
		Commands: []*cli.Command{
			seedCmd,
			rankCmd,
			summaryCmd,
			addCmd,
			removeCmd,
			exportCmd,
		},
		Metadata: map[string]interface{}{},
		After: func(ctx context.Context, cmd *cli.Command) error {
			if e, ok := cmd.Root().Metadata[envKey].(*env); ok {
				e.close()
			}
			return nil
		},
	}
}

// openEnv connects to Postgres and Redis on first use and wires the services.
func openEnv(ctx context.Context, cmd *cli.Command) (*env, error) {
	root := cmd.Root()
	if e, ok := root.Metadata[envKey].(*env); ok {
		return e, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if root.Bool(debugFlag.Name) {
		level = "debug"
	}
	log, err := logger.NewLogger(cfg.Logging.Env, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	e := &env{logger: log}
	if e.db, err = app.NewDatabase(ctx, cfg.Database, nil); err != nil {
		e.close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if e.redis, err = app.NewRedisClient(ctx, cfg.Redis, nil); err != nil {
		e.close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	if e.services, err = app.NewServices(cfg, e.db, e.redis, log); err != nil {
		e.close()
		return nil, fmt.Errorf("wiring services: %w", err)
	}

	root.Metadata[envKey] = e
	return e, nil
}

// printOutput writes v in the format selected by the --format flag.
func printOutput(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case formatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}
