package redisserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yndnr/rudis-go/internal/resp"
)

// FrameWriter receives the reply of a command.
type FrameWriter interface {
	WriteFrame(f resp.Frame) error
}

// Command is one parsed request. Apply writes exactly one reply frame.
type Command interface {
	// Name returns the lower-case verb.
	Name() string
	// ParseFields consumes the arguments that follow the verb.
	ParseFields(p *Parser) error
	// Apply executes the command and writes its reply to w.
	Apply(w FrameWriter) error
}

// CommandFactory returns a fresh, unparsed Command.
type CommandFactory func() Command

// CommandTable maps verbs to command factories. The zero value is not usable;
// call NewCommandTable.
type CommandTable struct {
	mu        sync.RWMutex
	factories map[string]CommandFactory
}

// NewCommandTable returns a table with the built-in commands registered.
func NewCommandTable() *CommandTable {
	t := &CommandTable{factories: make(map[string]CommandFactory)}
	t.factories["ping"] = func() Command { return &Ping{} }
	return t
}

// Register adds a command under name. Names are case-insensitive.
func (t *CommandTable) Register(name string, factory CommandFactory) error {
	name = strings.ToLower(name)
	if name == "" || factory == nil {
		return fmt.Errorf("redisserver: invalid command registration %q", name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	t.factories[name] = factory
	return nil
}

// Names returns the registered verbs in sorted order.
func (t *CommandTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.factories))
	for name := range t.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *CommandTable) lookup(name string) (CommandFactory, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.factories[name]
	return f, ok
}

// Parse turns a request frame into a Command.
//
// An unknown verb yields an *Unknown without looking at the remaining
// elements. A known verb with arguments left over is a protocol error.
func (t *CommandTable) Parse(frame resp.Frame) (Command, error) {
	p, err := NewParser(frame)
	if err != nil {
		return nil, err
	}
	verb, err := p.NextString()
	if err != nil {
		if errors.Is(err, ErrEndOfStream) {
			return nil, fmt.Errorf("%w: empty request", ErrProtocol)
		}
		return nil, err
	}
	verb = strings.ToLower(verb)

	factory, ok := t.lookup(verb)
	if !ok {
		return &Unknown{name: verb}, nil
	}
	cmd := factory()
	if err := cmd.ParseFields(p); err != nil {
		return nil, err
	}
	if err := p.Finish(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Ping replies PONG, or echoes its single argument.
type Ping struct {
	msg []byte
}

// NewPing returns a PING with an optional message.
func NewPing(msg []byte) *Ping {
	return &Ping{msg: msg}
}

func (c *Ping) Name() string { return "ping" }

func (c *Ping) ParseFields(p *Parser) error {
	msg, err := p.NextBytes()
	switch {
	case errors.Is(err, ErrEndOfStream):
		return nil
	case err != nil:
		return err
	}
	if msg == nil {
		msg = []byte{}
	}
	c.msg = msg
	return nil
}

func (c *Ping) Apply(w FrameWriter) error {
	if c.msg == nil {
		return w.WriteFrame(resp.Simple("PONG"))
	}
	return w.WriteFrame(resp.Bulk(c.msg))
}

// Frame returns the request array that encodes this PING.
func (c *Ping) Frame() resp.Array {
	if c.msg == nil {
		return resp.Command("ping")
	}
	return resp.CommandBytes([]byte("ping"), c.msg)
}

// Unknown stands in for any verb that is not registered.
type Unknown struct {
	name string
}

// NewUnknown returns the command for an unrecognized verb.
func NewUnknown(name string) *Unknown {
	return &Unknown{name: name}
}

func (c *Unknown) Name() string { return c.name }

func (c *Unknown) ParseFields(*Parser) error { return nil }

func (c *Unknown) Apply(w FrameWriter) error {
	return w.WriteFrame(resp.Error("unknown command '" + oneLine(c.name) + "'"))
}

// oneLine replaces CR and LF so s fits in a simple or error line.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
