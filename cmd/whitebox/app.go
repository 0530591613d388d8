package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gitlab.bluewillows.net/root/whitebox/internal/config"
	"gitlab.bluewillows.net/root/whitebox/internal/containers"
	"gitlab.bluewillows.net/root/whitebox/pkg/remote"
	"gitlab.bluewillows.net/root/whitebox/pkg/resolve"
	"gitlab.bluewillows.net/root/whitebox/pkg/whitebox"
)

// errNeedsConnection is returned by operations that cannot be simulated
// in dry-run mode.
var errNeedsConnection = errors.New("not available in dry-run mode")

// app is everything a command needs, built once from the configuration.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	// ssh is nil in dry-run mode.
	ssh       *remote.SSHTransport
	transport remote.Transport
	session   *remote.Session
	topo      whitebox.Topology
	clients   *whitebox.Clients
}

// newApp wires the transport, session and clients for cfg. Dry-run mode
// prints every command to out instead of connecting.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.DryRun {
		a.transport = remote.DryRunTransport{Out: out}
	} else {
		opts := []remote.TransportOption{remote.WithTransportLogger(logger)}
		if cfg.SSH.Nameserver != "" {
			r, err := resolve.New(cfg.SSH.Nameserver,
				resolve.WithTimeout(cfg.SSH.Timeout),
				resolve.WithLogger(logger),
			)
			if err != nil {
				return nil, fmt.Errorf("creating resolver: %w", err)
			}
			opts = append(opts, remote.WithResolver(r))
		}
		a.ssh = remote.NewSSHTransport(cfg.SSHSettings(), opts...)
		a.transport = a.ssh
	}

	session, err := remote.NewSession(cfg.Identity(), a.transport, remote.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a.session = session

	inContainers, err := a.detectContainers(ctx)
	if err != nil {
		return nil, err
	}
	a.topo = whitebox.Topology{
		Containers:       inContainers,
		ComputeContainer: cfg.ComputeContainer,
		APIContainer:     cfg.APIContainer,
	}

	a.clients = whitebox.NewClients(session, a.topo,
		whitebox.WithDatabaseOptions(a.databaseOptions()...),
		whitebox.WithManagementOptions(whitebox.WithManageBinary(cfg.NovaManageBinary)),
	)

	logger.Debug("whitebox initialized",
		slog.String("config", cfg.String()),
		slog.Bool("containers", inContainers),
	)

	return a, nil
}

// detectContainers resolves the containers setting. auto asks the
// controller's Docker daemon whether the API container runs.
func (a *app) detectContainers(ctx context.Context) (bool, error) {
	switch a.cfg.Containers {
	case config.ContainersOn:
		return true, nil
	case config.ContainersOff:
		return false, nil
	}

	if a.ssh == nil {
		a.logger.Warn("containers=auto cannot be detected in dry-run mode, assuming false")
		return false, nil
	}

	r, err := a.docker(ctx, "")
	if err != nil {
		return false, err
	}
	defer func() { _ = r.Close() }()

	return containers.DetectContainers(ctx, r.Inspector, a.cfg.APIContainer)
}

// docker connects to the Docker daemon on host, the controller when empty.
func (a *app) docker(ctx context.Context, host string) (*containers.Remote, error) {
	if a.ssh == nil {
		return nil, fmt.Errorf("docker: %w", errNeedsConnection)
	}
	return containers.Connect(ctx, a.ssh, host, a.cfg.Identity(), a.cfg.DockerSocket,
		containers.WithLogger(a.logger),
	)
}

func (a *app) databaseOptions() []whitebox.DatabaseOption {
	cfg := a.cfg
	opts := []whitebox.DatabaseOption{
		whitebox.WithDatabaseCLI(cfg.DatabaseCLI),
		whitebox.WithPython(cfg.NovaPython),
		whitebox.WithNovaConfig(cfg.NovaConfigPath),
		whitebox.WithDatabaseLogger(a.logger),
	}
	if cfg.ShardRewrite != nil {
		opts = append(opts, whitebox.WithShardPolicy(whitebox.RewriteShards(cfg.ShardRewrite)))
	}

	switch {
	case cfg.DatabaseConnection != "":
		opts = append(opts, whitebox.WithDiscoverer(whitebox.StaticDiscoverer(cfg.DatabaseConnection)))
	case cfg.DatabaseDiscovery == whitebox.StrategyConfigFile:
		opts = append(opts, whitebox.WithDiscoverer(&whitebox.ConfigFileDiscoverer{
			Reader: &whitebox.ContextFileReader{Session: a.session.Named("discovery"), Topology: a.topo},
			Path:   cfg.NovaConfigPath,
		}))
	case cfg.DatabaseDiscovery == whitebox.StrategySFTP:
		if a.ssh == nil {
			// Discovery fails on first use, like any other discovery error.
			opts = append(opts, whitebox.WithDiscoverer(failingDiscoverer{fmt.Errorf("sftp discovery: %w", errNeedsConnection)}))
			break
		}
		opts = append(opts, whitebox.WithDiscoverer(&whitebox.ConfigFileDiscoverer{
			Reader: &whitebox.SFTPFileReader{Dialer: a.ssh, Identity: cfg.Identity(), Logger: a.logger},
			Path:   cfg.NovaConfigPath,
		}))
	}

	return opts
}

type failingDiscoverer struct{ err error }

func (d failingDiscoverer) Discover(context.Context) (string, error) { return "", d.err }

// containerRunner checks containers on one host, connecting per check so
// a dropped connection does not outlive the check that saw it.
type containerRunner struct {
	app  *app
	host string
}

func (r containerRunner) Running(ctx context.Context, name string) (bool, error) {
	d, err := r.app.docker(ctx, r.host)
	if err != nil {
		return false, err
	}
	defer func() { _ = d.Close() }()

	return d.Running(ctx, name)
}
