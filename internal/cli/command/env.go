package command

import (
	"context"
	"io"

	"github.com/yndnr/rudis-go/internal/cli/config"
	"github.com/yndnr/rudis-go/internal/cli/connection"
	"github.com/yndnr/rudis-go/internal/cli/output"
	"github.com/yndnr/rudis-go/internal/resp"
)

// Env is the state of one CLI invocation.
type Env struct {
	// File is the config as read from ConfigPath; commands that persist
	// settings modify and save it.
	File *config.CLIConfig
	// Config is File with RUDIS_* variables and flags applied.
	Config     *config.CLIConfig
	ConfigPath string

	Manager   *connection.Manager
	Formatter output.Formatter
	Format    output.Format
	Out       io.Writer
	Err       io.Writer
}

// Connect dials the configured server unless already connected.
func (e *Env) Connect(ctx context.Context) error {
	if e.Manager.IsConnected() {
		return nil
	}
	return e.connectTo(ctx, e.Config.CurrentConnection, e.Config.Server())
}

func (e *Env) connectTo(ctx context.Context, name, server string) error {
	return e.Manager.Connect(ctx, &connection.Connection{
		Name:    name,
		Server:  server,
		Timeout: e.Config.RequestTimeout(),
	})
}

// Do sends one command, connecting first if needed.
func (e *Env) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	if err := e.Connect(ctx); err != nil {
		return nil, err
	}
	return e.Manager.Do(ctx, args...)
}

// Print writes data with the selected formatter.
func (e *Env) Print(data any) error {
	return e.Formatter.Format(e.Out, data)
}

// structured reports whether the output format is meant for machines.
func (e *Env) structured() bool {
	return e.Format == output.FormatJSON || e.Format == output.FormatYAML
}

// Save writes File back to ConfigPath.
func (e *Env) Save() error {
	return config.Save(e.File, e.ConfigPath)
}

// Prompt returns the REPL prompt: the server address, or "not connected".
func (e *Env) Prompt() string {
	if conn := e.Manager.Current(); conn != nil {
		return conn.Server + "> "
	}
	return "not connected> "
}

// Close drops the connection.
func (e *Env) Close() error {
	return e.Manager.Disconnect()
}
