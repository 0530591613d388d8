package health

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
	"gitlab.bluewillows.net/root/whitebox/pkg/whitebox"
)

// hostTransport fails every connection to a host listed in down.
type hostTransport struct {
	down     map[string]bool
	commands []string
}

func (t *hostTransport) Connect(_ context.Context, host string, _ remote.Identity) (remote.Conn, error) {
	if t.down[host] {
		return nil, &remote.RemoteExecutionError{Host: host, ExitCode: -1, Err: remote.ErrTransport}
	}
	return hostConn{t: t}, nil
}

type hostConn struct{ t *hostTransport }

func (c hostConn) Run(_ context.Context, command string) (string, error) {
	c.t.commands = append(c.t.commands, command)
	return "", nil
}

func (c hostConn) Close() error { return nil }

func TestCommandChecker(t *testing.T) {
	tr := &hostTransport{down: map[string]bool{"compute-1": true}}
	s, err := remote.NewSession(remote.Identity{Host: "controller-0", User: "heat-admin", KeyPath: "/key"}, tr)
	if err != nil {
		t.Fatal(err)
	}

	if err := CommandChecker(s, "")(context.Background()); err != nil {
		t.Errorf("controller check error = %v", err)
	}
	if len(tr.commands) != 1 || tr.commands[0] != "/bin/bash -c true" {
		t.Errorf("commands = %q", tr.commands)
	}

	err = CommandChecker(s, "compute-1")(context.Background())
	if !errors.Is(err, remote.ErrTransport) {
		t.Errorf("compute-1 check error = %v, want ErrTransport", err)
	}
}

type fakeRunner map[string]bool

func (f fakeRunner) Running(_ context.Context, name string) (bool, error) {
	if name == "broken" {
		return false, errors.New("daemon unreachable")
	}
	return f[name], nil
}

func TestContainerChecker(t *testing.T) {
	r := fakeRunner{"nova_api": true, "nova_compute": false}

	tests := []struct {
		name    string
		wantErr string
	}{
		{name: "nova_api"},
		{name: "nova_compute", wantErr: "container nova_compute is not running"},
		{name: "broken", wantErr: "daemon unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ContainerChecker(r, tt.name)(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

type fakeDatabase struct{ err error }

func (f fakeDatabase) Database(context.Context) (*whitebox.DatabaseClient, error) {
	return nil, f.err
}

func TestDatabaseDegradedChecker(t *testing.T) {
	degraded, msg := DatabaseDegradedChecker(fakeDatabase{err: errors.New("no [database] section")})(context.Background())
	if !degraded || msg != "no [database] section" {
		t.Errorf("checker = %v, %q", degraded, msg)
	}

	degraded, msg = DatabaseDegradedChecker(fakeDatabase{})(context.Background())
	if degraded || msg != "" {
		t.Errorf("checker = %v, %q, want not degraded", degraded, msg)
	}
}
