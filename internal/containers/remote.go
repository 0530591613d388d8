package containers

import (
	"context"
	"errors"
	"fmt"
	"net"

	dockerclient "github.com/docker/docker/client"

	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
	"gitlab.bluewillows.net/root/whitebox/pkg/sshutil"
)

// DefaultSocket is the Docker daemon socket on deployment hosts.
const DefaultSocket = "/var/run/docker.sock"

// Dialer opens an SSH client connection. *remote.SSHTransport implements it.
type Dialer interface {
	Dial(ctx context.Context, host string, id remote.Identity) (*sshutil.Client, error)
}

// Remote is an Inspector talking to a host's Docker daemon through a
// socket forwarded over SSH. Close releases both connections.
type Remote struct {
	*Inspector

	ssh    *sshutil.Client
	docker *dockerclient.Client
}

// Connect dials host over SSH and returns an inspector for the Docker
// daemon listening on socket there. An empty host means the identity's
// host and an empty socket means DefaultSocket.
func Connect(ctx context.Context, d Dialer, host string, id remote.Identity, socket string, opts ...Option) (*Remote, error) {
	if host == "" {
		host = id.Host
	}
	if socket == "" {
		socket = DefaultSocket
	}

	sshClient, err := d.Dial(ctx, host, id)
	if err != nil {
		return nil, err
	}

	cli, err := dockerclient.NewClientWithOpts(
		dockerclient.WithHost("unix://"+socket),
		dockerclient.WithDialContext(func(ctx context.Context, _, _ string) (net.Conn, error) {
			return sshClient.DialUnix(ctx, socket)
		}),
		dockerclient.WithAPIVersionNegotiation(),
	)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("docker client: %w", err)
	}

	return &Remote{
		Inspector: NewInspector(cli, host, opts...),
		ssh:       sshClient,
		docker:    cli,
	}, nil
}

// Close closes the Docker client and the SSH connection under it.
func (r *Remote) Close() error {
	return errors.Join(r.docker.Close(), r.ssh.Close())
}
