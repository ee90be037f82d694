package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/cli/connection"
)

// ErrReply is wrapped by errors for commands the server answered with an
// error reply. The reply itself has already been printed.
var ErrReply = errors.New("server replied with an error")

// ExecCommand returns the exec command. It sends its arguments verbatim,
// including verbs that collide with rudis-cli subcommands.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:            "exec",
		Usage:           "Send a command to the server",
		ArgsUsage:       "VERB [ARG...]",
		SkipFlagParsing: true,
		Action: func(c *cli.Context) error {
			env, err := mustEnv(c)
			if err != nil {
				return err
			}
			if !c.Args().Present() {
				return fmt.Errorf("command required")
			}
			return execArgs(c.Context, env, c.Args().Slice())
		},
	}
}

func execArgs(ctx context.Context, env *Env, args []string) error {
	frame, err := env.Do(ctx, args...)
	if err != nil {
		return err
	}
	if err := env.Print(frame); err != nil {
		return err
	}
	if replyErr := connection.ReplyError(frame); replyErr != nil {
		return fmt.Errorf("%w: %v", ErrReply, replyErr)
	}
	return nil
}
