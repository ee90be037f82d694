package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yndnr/rudis-go/internal/resp"
)

// ErrNotConnected is returned when no server is connected.
var ErrNotConnected = errors.New("connection: not connected")

// Connection describes a server to connect to.
type Connection struct {
	Name    string
	Server  string
	Timeout time.Duration
}

// Manager holds the current connection of a CLI session.
type Manager struct {
	mu      sync.Mutex
	current *Connection
	client  *Client
}

// NewManager creates a new connection manager.
func NewManager() *Manager {
	return &Manager{}
}

// Connect dials conn.Server and verifies it with PING. On success it
// replaces the current connection; on failure the current one is kept.
func (m *Manager) Connect(ctx context.Context, conn *Connection) error {
	if conn == nil || conn.Server == "" {
		return errors.New("connection: server address required")
	}

	client, err := Dial(ctx, conn.Server, conn.Timeout)
	if err != nil {
		return err
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return fmt.Errorf("ping %s: %w", conn.Server, err)
	}

	m.mu.Lock()
	old := m.client
	m.current, m.client = conn, client
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Disconnect closes the current connection.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	client := m.client
	m.current, m.client = nil, nil
	m.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Close()
}

// Current returns the current connection.
func (m *Manager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsConnected returns true if connected to a server.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil
}

// Client returns the current client, or nil.
func (m *Manager) Client() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// Do runs a command on the current connection. A connection that failed
// mid-request is dropped, so the next Do reports ErrNotConnected.
func (m *Manager) Do(ctx context.Context, args ...string) (resp.Frame, error) {
	client := m.Client()
	if client == nil {
		return nil, ErrNotConnected
	}
	f, err := client.Do(ctx, args...)
	if err != nil {
		m.mu.Lock()
		if m.client == client {
			m.current, m.client = nil, nil
		}
		m.mu.Unlock()
		return nil, err
	}
	return f, nil
}
