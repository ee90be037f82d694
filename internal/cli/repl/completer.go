package repl

import (
	"sort"
	"strings"
)

// Builtins are handled by the REPL itself.
var Builtins = []string{"help", "history", "exit", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer that knows the built-ins plus extra
// commands. Duplicates are dropped; commands are kept sorted.
func NewCompleter(extra ...string) *Completer {
	c := &Completer{}
	c.Add(Builtins...)
	c.Add(extra...)
	return c
}

// Add registers more commands.
func (c *Completer) Add(cmds ...string) {
	for _, cmd := range cmds {
		cmd = strings.ToLower(strings.TrimSpace(cmd))
		if cmd == "" {
			continue
		}
		i := sort.SearchStrings(c.commands, cmd)
		if i < len(c.commands) && c.commands[i] == cmd {
			continue
		}
		c.commands = append(c.commands, "")
		copy(c.commands[i+1:], c.commands[i:])
		c.commands[i] = cmd
	}
}

// Commands returns all known commands in order.
func (c *Completer) Commands() []string {
	out := make([]string, len(c.commands))
	copy(out, c.commands)
	return out
}

// Complete returns completion suggestions for the given prefix. Matching
// ignores case and the suggestions keep the case of the prefix's first rune.
func (c *Completer) Complete(prefix string) []string {
	lower := strings.ToLower(prefix)
	upper := prefix != "" && prefix[0] >= 'A' && prefix[0] <= 'Z'

	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, lower) {
			if upper {
				cmd = strings.ToUpper(cmd)
			}
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
