package whitebox

import (
	"context"
	"sync"
	"testing"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
)

type call struct {
	Host    string
	Command string
}

// scriptedTransport records every command and answers through respond.
type scriptedTransport struct {
	mu      sync.Mutex
	calls   []call
	respond func(command string) (string, error)
}

func (t *scriptedTransport) Connect(_ context.Context, host string, _ remote.Identity) (remote.Conn, error) {
	return &scriptedConn{t: t, host: host}, nil
}

func (t *scriptedTransport) Calls() []call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]call(nil), t.calls...)
}

type scriptedConn struct {
	t    *scriptedTransport
	host string
}

func (c *scriptedConn) Run(_ context.Context, command string) (string, error) {
	c.t.mu.Lock()
	c.t.calls = append(c.t.calls, call{Host: c.host, Command: command})
	respond := c.t.respond
	c.t.mu.Unlock()

	if respond == nil {
		return "", nil
	}
	return respond(command)
}

func (c *scriptedConn) Close() error { return nil }

var testIdentity = remote.Identity{
	Host:    "controller-0",
	User:    "heat-admin",
	KeyPath: "/home/stack/.ssh/id_rsa",
}

func newSession(t *testing.T, respond func(string) (string, error)) (*remote.Session, *scriptedTransport) {
	t.Helper()

	tr := &scriptedTransport{respond: respond}
	s, err := remote.NewSession(testIdentity, tr)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s, tr
}
