package whitebox

import (
	"context"
	"strings"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
)

// DefaultManageBinary is the management CLI run by ManagementClient.
const DefaultManageBinary = "nova-manage"

// ManagementClient runs nova-manage sub-commands in the API context on the
// controller.
type ManagementClient struct {
	session *remote.Session
	topo    Topology
	binary  string
}

// ManagementOption is a functional option for configuring the ManagementClient.
type ManagementOption func(*ManagementClient)

// WithManageBinary sets the management CLI binary.
func WithManageBinary(binary string) ManagementOption {
	return func(m *ManagementClient) {
		if binary != "" {
			m.binary = binary
		}
	}
}

// NewManagementClient creates a management client.
func NewManagementClient(s *remote.Session, topo Topology, opts ...ManagementOption) *ManagementClient {
	m := &ManagementClient{
		session: s.Named("nova-manage"),
		topo:    topo,
		binary:  DefaultManageBinary,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Run runs the management CLI with args, each quoted, and returns its
// output unparsed.
func (m *ManagementClient) Run(ctx context.Context, args ...string) (string, error) {
	cmd := m.binary
	if len(args) > 0 {
		cmd += " " + remote.QuoteArgs(args...)
	}
	return m.topo.APIContext(m.session).Execute(ctx, "", cmd)
}

// ExecuteCommand runs a sub-command given as one string, such as
// "cell_v2 list_cells". The string is appended to the binary as is, so
// shell quoting and redirections in it reach the remote shell.
func (m *ManagementClient) ExecuteCommand(ctx context.Context, command string) (string, error) {
	cmd := m.binary
	if strings.TrimSpace(command) != "" {
		cmd += " " + command
	}
	return m.topo.APIContext(m.session).Execute(ctx, "", cmd)
}
