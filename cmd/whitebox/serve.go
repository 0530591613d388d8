package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/whitebox/internal/health"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		port         int
		computeHosts []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, readiness and metrics endpoints",
		Long: `Serve /health, /ready and /metrics until interrupted. /ready runs a
no-op command on the controller and on every --compute-host, checks the
service containers when the deployment is containerized and reports the
database connection as degraded while it cannot be discovered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.setup(cmd)
			if err != nil {
				return err
			}
			if port == 0 {
				port = a.cfg.HealthPort
			}

			srv := health.New(port,
				health.WithLogger(a.logger),
				health.WithTimeout(a.cfg.SSH.Timeout),
				health.WithTarget(a.cfg.TargetController),
			)
			a.registerChecks(srv, computeHosts)

			if err := srv.Start(); err != nil {
				return fmt.Errorf("starting health server: %w", err)
			}
			a.logger.Info("whitebox serving",
				slog.String("addr", srv.Addr().String()),
				slog.Int("compute_hosts", len(computeHosts)),
			)

			<-cmd.Context().Done()
			a.logger.Info("shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("health server shutdown error", slog.String("error", err.Error()))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: server.port from the configuration)")
	cmd.Flags().StringSliceVar(&computeHosts, "compute-host", nil, "compute host to probe, repeatable")

	return cmd
}

// registerChecks adds the readiness checks for the controller and the
// given compute hosts. Container checks need a Docker connection and are
// skipped in dry-run mode.
func (a *app) registerChecks(srv *health.Server, computeHosts []string) {
	srv.RegisterChecker("controller", health.CommandChecker(a.session, ""))
	for _, host := range computeHosts {
		srv.RegisterChecker("compute:"+host, health.CommandChecker(a.session, host))
	}

	if a.topo.Containers && a.ssh != nil {
		srv.RegisterChecker("container:"+a.topo.APIContainer,
			health.ContainerChecker(containerRunner{app: a}, a.topo.APIContainer))
		for _, host := range computeHosts {
			srv.RegisterChecker("container:"+a.topo.ComputeContainer+"@"+host,
				health.ContainerChecker(containerRunner{app: a, host: host}, a.topo.ComputeContainer))
		}
	}

	srv.RegisterDegradedChecker("database", health.DatabaseDegradedChecker(a.clients))
}
