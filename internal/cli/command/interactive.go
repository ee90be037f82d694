package command

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/rudis-go/internal/cli/repl"
)

// localCommands run in the REPL without a server round trip.
var localCommands = map[string]func(ctx context.Context, env *Env, args []string) error{
	"connect": func(ctx context.Context, env *Env, args []string) error {
		server := env.Config.Server()
		if len(args) > 0 {
			server = args[0]
		}
		return connectTo(ctx, env, server, "")
	},
	"disconnect": func(_ context.Context, env *Env, _ []string) error {
		return disconnect(env)
	},
	"use": func(ctx context.Context, env *Env, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: use CONNECTION_NAME")
		}
		return useConnection(ctx, env, args[0])
	},
	"connections": func(_ context.Context, env *Env, _ []string) error {
		return listConnections(env)
	},
}

// replExecutor sends lines to the server. Error replies are printed like any
// other reply; only transport failures are returned.
func replExecutor(env *Env) repl.Executor {
	return repl.ExecutorFunc(func(ctx context.Context, args []string) error {
		if local, ok := localCommands[strings.ToLower(args[0])]; ok {
			return local(ctx, env, args[1:])
		}
		frame, err := env.Do(ctx, args...)
		if err != nil {
			return err
		}
		return env.Print(frame)
	})
}

func runREPL(ctx context.Context, env *Env, in io.Reader) error {
	history := repl.NewHistory(env.Config.HistoryFile, repl.DefaultHistorySize)
	if err := history.Load(); err != nil {
		fmt.Fprintf(env.Err, "warning: load history: %v\n", err)
	}

	completer := repl.NewCompleter("ping")
	for name := range localCommands {
		completer.Add(name)
	}

	if err := env.Connect(ctx); err != nil {
		fmt.Fprintf(env.Err, "Could not connect to %s: %v\n", env.Config.Server(), err)
	}

	r := repl.New(replExecutor(env),
		repl.WithInput(in),
		repl.WithOutput(env.Out),
		repl.WithHistory(history),
		repl.WithCompleter(completer),
		repl.WithPrompt(env.Prompt),
	)
	runErr := r.Run(ctx)

	if err := history.Save(); err != nil {
		fmt.Fprintf(env.Err, "warning: save history: %v\n", err)
	}
	return runErr
}
