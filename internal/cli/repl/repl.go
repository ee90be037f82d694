package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one split command line.
type Executor interface {
	Execute(ctx context.Context, args []string) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, args []string) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, args []string) error {
	return f(ctx, args)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	exec      Executor
	completer *Completer
	history   *History
	prompt    func() string
}

// Option configures a REPL.
type Option func(*REPL)

// WithInput sets the input reader.
func WithInput(r io.Reader) Option {
	return func(repl *REPL) { repl.input = r }
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(repl *REPL) { repl.output = w }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(repl *REPL) {
		if h != nil {
			repl.history = h
		}
	}
}

// WithCompleter sets the completer used by the help built-in.
func WithCompleter(c *Completer) Option {
	return func(repl *REPL) {
		if c != nil {
			repl.completer = c
		}
	}
}

// WithPrompt sets a function that returns the prompt before each line.
func WithPrompt(fn func() string) Option {
	return func(repl *REPL) {
		if fn != nil {
			repl.prompt = fn
		}
	}
}

// New creates a new REPL instance.
func New(exec Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		exec:      exec,
		completer: NewCompleter(),
		history:   NewHistory("", DefaultHistorySize),
		prompt:    func() string { return "rudis> " },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// errExit ends the loop without error.
var errExit = errors.New("exit")

// Run starts the REPL loop. It returns nil on exit, quit or end of input.
// Errors from the executor are printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(r.output, r.prompt())

		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return readErr
		}

		line = strings.TrimSpace(line)
		if line != "" {
			r.history.Add(line)
			if err := r.eval(ctx, line); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintf(r.output, "Error: %v\n", err)
			}
		}

		if readErr == io.EOF {
			fmt.Fprintln(r.output)
			return nil
		}
	}
}

func (r *REPL) eval(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit":
		return errExit
	case "help":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		r.printHelp(prefix)
		return nil
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
		return nil
	}

	if r.exec == nil {
		return fmt.Errorf("no executor for %q", args[0])
	}
	return r.exec.Execute(ctx, args)
}

// printHelp lists known commands, or those starting with prefix.
func (r *REPL) printHelp(prefix string) {
	cmds := r.completer.Commands()
	if prefix != "" {
		cmds = r.completer.Complete(prefix)
		if len(cmds) == 0 {
			fmt.Fprintf(r.output, "No commands match %q\n", prefix)
			return
		}
	}
	fmt.Fprintln(r.output, "Commands:")
	for _, cmd := range cmds {
		fmt.Fprintf(r.output, "  %s\n", cmd)
	}
	if prefix == "" {
		fmt.Fprintln(r.output, "Any other line is sent to the server as a command.")
	}
}
