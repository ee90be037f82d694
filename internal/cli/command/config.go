package command

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/config"
	"github.com/yndnr/rudis-go/internal/cli/output"
	"github.com/yndnr/rudis-go/internal/infra/confloader"
	serverconfig "github.com/yndnr/rudis-go/internal/server/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "cli",
				Usage: "CLI local configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Show the effective CLI configuration",
						Action: configCLIShow,
					},
					{
						Name:      "validate",
						Usage:     "Validate a CLI configuration file",
						ArgsUsage: "[FILE]",
						Action:    configCLIValidate,
					},
				},
			},
			{
				Name:  "server",
				Usage: "Server configuration management",
				Subcommands: []*cli.Command{
					{
						Name:      "test",
						Usage:     "Test a server configuration file",
						ArgsUsage: "FILE",
						Action:    configServerTest,
					},
				},
			},
		},
	}
}

// CLIConfigView is the effective CLI configuration as shown by config cli show.
type CLIConfigView struct {
	File        string        `json:"file" yaml:"file"`
	Server      string        `json:"server" yaml:"server"`
	Output      string        `json:"output" yaml:"output"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Connection  string        `json:"connection" yaml:"connection"`
	Connections int           `json:"connections" yaml:"connections"`
	HistoryFile string        `json:"history_file" yaml:"history_file"`
}

func configCLIShow(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	history := env.Config.HistoryFile
	if history == "" {
		history = config.DefaultHistoryPath()
	}
	return env.Print(CLIConfigView{
		File:        env.ConfigPath,
		Server:      env.Config.Server(),
		Output:      string(env.Format),
		Timeout:     env.Config.RequestTimeout(),
		Connection:  env.Config.CurrentConnection,
		Connections: len(env.Config.Connections),
		HistoryFile: history,
	})
}

func configCLIValidate(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		path = env.ConfigPath
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(env.Out, "No configuration file found at %s\n", path)
		fmt.Fprintf(env.Out, "Using default settings.\n")
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := validateCLIConfig(cfg); err != nil {
		fmt.Fprintf(env.Out, "✗ Configuration validation failed:\n%v\n", err)
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintf(env.Out, "✓ Configuration file is valid: %s\n", path)
	return nil
}

func validateCLIConfig(cfg *config.CLIConfig) error {
	var errs []error
	if _, err := output.ParseFormat(cfg.DefaultOutput); err != nil {
		errs = append(errs, fmt.Errorf("  - default_output: %w", err))
	}
	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("  - timeout: must not be negative"))
	}
	if _, _, err := net.SplitHostPort(cfg.DefaultServer); err != nil {
		errs = append(errs, fmt.Errorf("  - default_server: %w", err))
	}
	for name, conn := range cfg.Connections {
		if _, _, err := net.SplitHostPort(conn.Server); err != nil {
			errs = append(errs, fmt.Errorf("  - connections.%s.server: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func configServerTest(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("configuration file path required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	fmt.Fprintf(env.Out, "Testing server configuration %s...\n", path)

	cfg := serverconfig.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		return err
	}
	if err := serverconfig.Verify(cfg); err != nil {
		fmt.Fprintf(env.Out, "✗ Configuration validation failed:\n%v\n", err)
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintf(env.Out, "✓ Configuration is valid; redis listener %s:%d\n",
		cfg.Server.Redis.Host, cfg.Server.Redis.Port)
	return nil
}
