package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/config"
	"github.com/yndnr/rudis-go/internal/cli/connection"
	"github.com/yndnr/rudis-go/internal/cli/output"
	"github.com/yndnr/rudis-go/internal/infra/buildinfo"
)

const metaEnv = "env"

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:      "rudis-cli",
		Usage:     "Command-line client for rudis servers",
		UsageText: "rudis-cli [global options] [COMMAND [ARG...]]\n   rudis-cli [global options] command [command options]",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			PingCommand(),
			BenchCommand(),
			ConnectCommand(),
			DisconnectCommand(),
			UseCommand(),
			ConnectionsCommand(),
			ConfigCommand(),
		},
		Before: setupEnv,
		After: func(c *cli.Context) error {
			if env := GetEnv(c); env != nil {
				return env.Close()
			}
			return nil
		},
		Action: rootAction,
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "server address (host:port), overrides RUDIS_SERVER",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, raw, table, json, yaml",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "per-request timeout",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Output  string
	Timeout string
	Config  string
	Wide    bool
}

// ParseGlobalFlags extracts global flags from context. Server, Output and
// Timeout are empty unless given on the command line.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	flags := &GlobalFlags{
		Config: c.String("config"),
		Wide:   c.Bool("wide"),
	}
	if c.IsSet("server") {
		flags.Server = c.String("server")
	}
	if c.IsSet("output") {
		flags.Output = c.String("output")
	}
	if c.IsSet("timeout") {
		flags.Timeout = c.Duration("timeout").String()
	}
	return flags
}

// setupEnv loads the CLI config, applies RUDIS_* variables and flags, and
// stores the resulting Env in the app metadata.
func setupEnv(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	file, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	cfg, err := config.Merge(file, config.Environ(), map[string]string{
		config.KeyServer:  flags.Server,
		config.KeyOutput:  flags.Output,
		config.KeyTimeout: flags.Timeout,
	})
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(cfg.DefaultOutput)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaEnv] = &Env{
		File:       file,
		Config:     cfg,
		ConfigPath: flags.Config,
		Manager:    connection.NewManager(),
		Formatter:  output.NewFormatter(format, flags.Wide),
		Format:     format,
		Out:        writerOr(c.App.Writer, os.Stdout),
		Err:        writerOr(c.App.ErrWriter, os.Stderr),
	}
	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}

// GetEnv retrieves the Env from context.
func GetEnv(c *cli.Context) *Env {
	if env, ok := c.App.Metadata[metaEnv].(*Env); ok {
		return env
	}
	return nil
}

func mustEnv(c *cli.Context) (*Env, error) {
	env := GetEnv(c)
	if env == nil {
		return nil, fmt.Errorf("cli environment not initialized")
	}
	return env, nil
}

// rootAction sends its arguments as one command, or starts the REPL when
// there are none.
func rootAction(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	if c.Args().Present() {
		return execArgs(c.Context, env, c.Args().Slice())
	}
	return runREPL(c.Context, env, c.App.Reader)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
