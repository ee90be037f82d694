package command

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/config"
)

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Check a server and optionally save it as a named connection",
		ArgsUsage: "[SERVER]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Save the server under this name and make it current",
			},
		},
		Action: connectAction,
	}
}

func connectAction(c *cli.Context) error {
	env, err := mustEnv(c)
	if err != nil {
		return err
	}
	server := c.Args().First()
	if server == "" {
		server = env.Config.Server()
	}

	return connectTo(c.Context, env, server, c.String("name"))
}

// connectTo replaces the current connection with server. A non-empty name
// also saves server as the current named connection.
func connectTo(ctx context.Context, env *Env, server, name string) error {
	if err := env.connectTo(ctx, name, server); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	fmt.Fprintf(env.Out, "Connected to %s\n", server)

	if name == "" {
		return nil
	}
	conn := config.ConnectionConfig{Server: server}
	env.File.Connections[name] = conn
	env.File.CurrentConnection = name
	env.Config.Connections[name] = conn
	env.Config.CurrentConnection = name
	if err := env.Save(); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	fmt.Fprintf(env.Out, "Saved connection %q\n", name)
	return nil
}

// DisconnectCommand returns the disconnect command.
func DisconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Disconnect from the current server",
		Action: func(c *cli.Context) error {
			env, err := mustEnv(c)
			if err != nil {
				return err
			}
			return disconnect(env)
		},
	}
}

func disconnect(env *Env) error {
	if !env.Manager.IsConnected() {
		fmt.Fprintln(env.Out, "Not connected to any server")
		return nil
	}
	if err := env.Manager.Disconnect(); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Disconnected")
	return nil
}

// UseCommand returns the use command for switching connections.
func UseCommand() *cli.Command {
	return &cli.Command{
		Name:      "use",
		Usage:     "Switch to a saved connection",
		ArgsUsage: "CONNECTION_NAME",
		Action: func(c *cli.Context) error {
			env, err := mustEnv(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			if name == "" {
				return fmt.Errorf("connection name required")
			}
			return useConnection(c.Context, env, name)
		},
	}
}

// useConnection makes a saved connection current and persists the choice.
// An open connection is moved to the new server.
func useConnection(ctx context.Context, env *Env, name string) error {
	conn, ok := env.File.Connections[name]
	if !ok {
		return fmt.Errorf("connection %q not found", name)
	}

	env.File.CurrentConnection = name
	env.Config.Connections[name] = conn
	env.Config.CurrentConnection = name
	if err := env.Save(); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Fprintf(env.Out, "Switched to connection %q (%s)\n", name, conn.Server)

	if env.Manager.IsConnected() {
		return connectTo(ctx, env, conn.Server, "")
	}
	return nil
}

// ConnectionInfo is one row of the connections listing.
type ConnectionInfo struct {
	Name    string        `json:"name" yaml:"name"`
	Server  string        `json:"server" yaml:"server"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	Current bool          `json:"current" yaml:"current"`
}

// ConnectionsCommand returns the connections command.
func ConnectionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "connections",
		Usage: "List saved connections",
		Action: func(c *cli.Context) error {
			env, err := mustEnv(c)
			if err != nil {
				return err
			}
			return listConnections(env)
		},
	}
}

func listConnections(env *Env) error {
	infos := make([]ConnectionInfo, 0, len(env.Config.Connections))
	for name, conn := range env.Config.Connections {
		timeout := conn.Timeout
		if timeout == 0 {
			timeout = env.Config.Timeout
		}
		infos = append(infos, ConnectionInfo{
			Name:    name,
			Server:  conn.Server,
			Timeout: timeout,
			Current: name == env.Config.CurrentConnection,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	if len(infos) == 0 && !env.structured() {
		fmt.Fprintln(env.Out, "No saved connections")
		return nil
	}
	return env.Print(infos)
}
